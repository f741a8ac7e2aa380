package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field type
type Field = zapcore.Field

// Logger interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Named(name string) Logger
	Sync() error
}

// Config defines logger configuration
type Config struct {
	Level       string `json:"level" toml:"level" yaml:"level"`
	Encoding    string `json:"encoding" toml:"encoding" yaml:"encoding"`
	File        string `json:"file" toml:"file" yaml:"file"`
	MaxSize     int    `json:"max_size" toml:"max_size" yaml:"max_size"` // MB
	MaxBackups  int    `json:"max_backups" toml:"max_backups" yaml:"max_backups"`
	MaxAge      int    `json:"max_age" toml:"max_age" yaml:"max_age"` // days
	Development bool   `json:"development" toml:"development" yaml:"development"`

	out io.Writer
}

type logger struct {
	zap *zap.Logger
}

// Option defines logger option function
type Option func(*Config)

// WithLevel sets logger level
func WithLevel(level string) Option {
	return func(c *Config) {
		c.Level = level
	}
}

// WithEncoding sets logger encoding
func WithEncoding(encoding string) Option {
	return func(c *Config) {
		c.Encoding = encoding
	}
}

// WithFile also writes logs to a rotating file.
func WithFile(path string) Option {
	return func(c *Config) {
		c.File = path
	}
}

// WithWriter sends console output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(c *Config) {
		c.out = w
	}
}

// WithConfig replaces the defaults with every non-zero field of cfg.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		if cfg.Level != "" {
			c.Level = cfg.Level
		}
		if cfg.Encoding != "" {
			c.Encoding = cfg.Encoding
		}
		if cfg.File != "" {
			c.File = cfg.File
		}
		if cfg.MaxSize > 0 {
			c.MaxSize = cfg.MaxSize
		}
		if cfg.MaxBackups > 0 {
			c.MaxBackups = cfg.MaxBackups
		}
		if cfg.MaxAge > 0 {
			c.MaxAge = cfg.MaxAge
		}
		c.Development = c.Development || cfg.Development
	}
}

// NewLogger creates a new logger instance writing to stderr unless
// WithWriter says otherwise.
func NewLogger(opts ...Option) (Logger, error) {
	cfg := &Config{
		Level:      "info",
		Encoding:   "console",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("can't parse log level: %w", err)
	}

	newEncoder := func() zapcore.Encoder {
		if cfg.Encoding == "json" {
			return zapcore.NewJSONEncoder(encoderConfig)
		}
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	var out io.Writer = os.Stderr
	if cfg.out != nil {
		out = cfg.out
	}
	cores := []zapcore.Core{zapcore.NewCore(newEncoder(), zapcore.AddSync(out), level)}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("can't create log directory: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}), level))
	}

	options := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}
	if cfg.Development {
		options = append(options, zap.Development())
	}

	return &logger{zap: zap.New(zapcore.NewTee(cores...), options...)}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger { return &logger{zap: zap.NewNop()} }

// Various field constructors
func String(key string, val string) Field          { return zap.String(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Any(key string, val interface{}) Field        { return zap.Any(key, val) }
func Error(err error) Field                        { return zap.Error(err) }
func Time(key string, val time.Time) Field         { return zap.Time(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

func (l *logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}
