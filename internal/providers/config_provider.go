package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"vidops/internal/structures"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "VOPS_LOG_LEVEL")
	viper.BindEnv("store.url", "VOPS_STORE_URL")
	viper.BindEnv("store.serviceToken", "VOPS_SERVICE_TOKEN")
	viper.BindEnv("upstream.cookie", "VOPS_UPSTREAM_COOKIE")
	viper.BindEnv("upstream.headless", "VOPS_HEADLESS_ENABLED")
	viper.BindEnv("upstream.hfEndpoint", "VOPS_HF_ENDPOINT")
	viper.BindEnv("sync.statConcurrency", "VOPS_STAT_CONCURRENCY")
	viper.BindEnv("tracker.retentionDays", "VOPS_SNAPSHOT_RETENTION_DAYS")
	viper.BindEnv("scheduler.enabled", "VOPS_SCHEDULER_ENABLED")
	viper.BindEnv("cache.enabled", "VOPS_CACHE_ENABLED")
	viper.BindEnv("cache.size", "VOPS_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "VidopsWorkbench"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
