package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global sugared logger based on LOG_LEVEL and LOG_FILE
// and redirects the standard library logger to zap. It's safe to call
// multiple times.
func Init() *zap.SugaredLogger {
	once.Do(func() {
		level := strings.ToLower(os.Getenv("LOG_LEVEL"))
		var logger *zap.Logger
		if file := strings.TrimSpace(os.Getenv("LOG_FILE")); file != "" {
			logger = fileLogger(file, level)
		} else if level == "debug" {
			l, _ := zap.NewDevelopment()
			logger = l
		} else {
			l, _ := zap.NewProduction()
			logger = l
		}
		// Redirect standard library logs into zap so all logs are unified.
		_ = zap.RedirectStdLog(logger)
		sugar = logger.Sugar()
	})
	return sugar
}

// fileLogger builds a JSON logger writing to a size-rotated file.
func fileLogger(path, level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if level == "debug" {
		lvl = zapcore.DebugLevel
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, w, lvl))
}

// Sugar returns the initialized sugared logger. Call Init first.
func Sugar() *zap.SugaredLogger { return sugar }

// Infow logs an info message with structured key/value pairs.
func Infow(msg string, kv ...interface{}) { Init().Infow(msg, kv...) }

// Debugw logs a debug message with structured key/value pairs.
func Debugw(msg string, kv ...interface{}) { Init().Debugw(msg, kv...) }

// Warnw logs a warning with structured key/value pairs.
func Warnw(msg string, kv ...interface{}) { Init().Warnw(msg, kv...) }

// Errorw logs an error with structured key/value pairs.
func Errorw(msg string, kv ...interface{}) { Init().Errorw(msg, kv...) }

// InterviewFields returns common structured fields for an interview-scoped
// log line.
func InterviewFields(interviewID, candidate string, extra ...interface{}) []interface{} {
	out := []interface{}{"interview_id", interviewID}
	if candidate != "" {
		out = append(out, "candidate", candidate)
	}
	return append(out, extra...)
}

func init() {
	Init()
}
