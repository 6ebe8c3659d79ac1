package providers

import (
	"testing"
	"time"
	"vidops/internal/structures"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Dir:   "/tmp/logs",
		},
		Store: structures.StoreConfig{
			URL:     "http://127.0.0.1:3000",
			Timeout: 15 * time.Second,
		},
		Upstream: structures.UpstreamConfig{
			Timeout:  20 * time.Second,
			PageSize: 50,
		},
		Sync: structures.SyncConfig{
			StatConcurrency: 4,
		},
		Tracker: structures.TrackerConfig{
			DetailConcurrency: 4,
			RetentionDays:     90,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_BadStoreURL(t *testing.T) {
	c := validConfig()
	c.Store.URL = "not a url"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPageSize(t *testing.T) {
	c := validConfig()
	c.Upstream.PageSize = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroRetention(t *testing.T) {
	c := validConfig()
	c.Tracker.RetentionDays = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}
