package log

import (
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

var (
	mu      sync.Mutex
	rotated []*lumberjack.Logger
)

// Config controls where the router writes its log output.
//
// FileName is a prefix: when set, info and error entries are also written to
// FileName.info.log and FileName.error.log, rotated by lumberjack.
type Config struct {
	Level      string
	FileName   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultLogger installs a console-only logger at debug level.
func DefaultLogger() {
	install(consoleCore(zapcore.DebugLevel))
}

// InitLogger installs the global logger described by cfg. Files opened by a
// previous call are closed first.
func InitLogger(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	if err := Close(); err != nil {
		return err
	}

	allCore := []zapcore.Core{consoleCore(level)}
	if cfg.FileName != "" {
		encoder := consoleEncoder()
		infoLum := newRotated(cfg, cfg.FileName+".info.log")
		errorLum := newRotated(cfg, cfg.FileName+".error.log")
		allCore = append(allCore,
			zapcore.NewCore(encoder, zapcore.AddSync(errorLum), zapcore.ErrorLevel),
			zapcore.NewCore(encoder, zapcore.AddSync(infoLum), zapcore.InfoLevel),
		)
		mu.Lock()
		rotated = append(rotated, infoLum, errorLum)
		mu.Unlock()
	}
	install(allCore...)
	return nil
}

// ParseLevel maps a level name to a zap level. The empty string means info.
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return level, err
	}
	return level, nil
}

// Close flushes the global logger and closes any rotated log files.
func Close() error {
	var err error
	if Logger != nil {
		// stdout reports EINVAL on Sync for terminals and pipes; only file errors matter here.
		_ = Logger.Sync()
	}
	mu.Lock()
	defer mu.Unlock()
	for _, l := range rotated {
		err = multierr.Append(err, l.Close())
	}
	rotated = nil
	return err
}

func newRotated(cfg Config, fileName string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func consoleCore(level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stdout), level)
}

func install(cores ...zapcore.Core) {
	Logger = zap.New(zapcore.NewTee(cores...)).WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))
	zap.ReplaceGlobals(Logger)
}

func Infof(template string, args ...interface{}) {
	zap.S().Infof(template, args...)
}

func Debugf(template string, args ...interface{}) {
	zap.S().Debugf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	zap.S().Errorf(template, args...)
}

func Warnf(template string, args ...interface{}) {
	zap.S().Warnf(template, args...)
}

func Info(msg string, fields ...zapcore.Field) {
	zap.L().Info(msg, fields...)
}

func Debug(msg string, fields ...zapcore.Field) {
	zap.L().Debug(msg, fields...)
}

func Error(msg string, fields ...zapcore.Field) {
	zap.L().Error(msg, fields...)
}

func Warn(msg string, fields ...zapcore.Field) {
	zap.L().Warn(msg, fields...)
}
