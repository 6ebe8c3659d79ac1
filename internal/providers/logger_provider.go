package providers

import (
	"io"
	"os"
	"path/filepath"
	"vidops/internal/structures"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeHttp
	TypeUpstream
	TypeJob
)

func (t TypeEnum) String() string {
	switch t {
	case TypeHttp:
		return "http"
	case TypeUpstream:
		return "upstream"
	case TypeJob:
		return "job"
	default:
		return "app"
	}
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

type LogProvider struct {
	log    zerolog.Logger
	closer io.Closer
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(conf.Logger.Dir, 0o755); err != nil {
		return nil, err
	}
	// Probe writability up front so a bad dir fails at startup, not at the
	// first rotated write.
	probe := filepath.Join(conf.Logger.Dir, ".probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return nil, err
	}
	_ = os.Remove(probe)

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(conf.Logger.Dir, "vidops.log"),
		MaxSize:    max(conf.Logger.MaxSizeMB, 10),
		MaxBackups: max(conf.Logger.MaxBackups, 3),
		Compress:   true,
	}

	var out io.Writer = rotated
	if conf.Debug {
		out = zerolog.MultiLevelWriter(rotated, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	return &LogProvider{log: logger, closer: rotated}, nil
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.log.Error().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.log.Warn().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.log.Info().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.log.Debug().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.log.Fatal().Str("type", t.String()).Msgf(format, args...)
}

func (l *LogProvider) Close() {
	if l.closer != nil {
		_ = l.closer.Close()
	}
}
