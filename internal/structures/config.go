package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Dir        string `yaml:"dir" validate:"required|unixPath"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

type StoreConfig struct {
	URL          string        `yaml:"url" validate:"required|fullUrl"`
	ServiceToken string        `yaml:"serviceToken"`
	Timeout      time.Duration `yaml:"timeout" validate:"required|min:1"`
}

type UpstreamConfig struct {
	Cookie        string        `yaml:"cookie"`
	Timeout       time.Duration `yaml:"timeout" validate:"required|min:1"`
	PageSize      int           `yaml:"pageSize" validate:"required|min:1"`
	HFEndpoint    string        `yaml:"hfEndpoint"`
	BrowserDwell  time.Duration `yaml:"browserDwell"`
	Headless      bool          `yaml:"headless"`
	BrowserBinary string        `yaml:"browserBinary"`
}

type CommerceConfig struct {
	AppKey    string `yaml:"appKey"`
	AppSecret string `yaml:"appSecret"`
	APIBase   string `yaml:"apiBase"`
}

type SyncConfig struct {
	StatConcurrency int `yaml:"statConcurrency" validate:"required|min:1"`
}

type TrackerConfig struct {
	DetailConcurrency int `yaml:"detailConcurrency" validate:"required|min:1"`
	RetentionDays     int `yaml:"retentionDays" validate:"required|min:1"`
}

type SchedulerConfig struct {
	Enabled   bool `yaml:"enabled"`
	SweepHour int  `yaml:"sweepHour" validate:"uint|max:23"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `yaml:"webServer"`
	Logger    LoggerConfig    `yaml:"logger"`
	Store     StoreConfig     `yaml:"store"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Commerce  CommerceConfig  `yaml:"commerce"`
	Sync      SyncConfig      `yaml:"sync"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}
