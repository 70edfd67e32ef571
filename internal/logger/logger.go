package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

var output io.Writer = os.Stdout

// Setup initializes Logrus with a rotating file. In development the log is
// mirrored to stdout as well.
func Setup(filename, level string, mirrorStdout bool) {
	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}

	output = rotator
	if mirrorStdout {
		output = io.MultiWriter(rotator, os.Stdout)
	}

	logrus.SetOutput(output)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// Writer returns the sink configured by Setup, used by the HTTP access log.
func Writer() io.Writer {
	return output
}

// Gorm returns a GORM logger that writes SQL through the standard Logrus logger.
func Gorm(level string) gormlogger.Interface {
	gormLevel := gormlogger.Warn
	switch level {
	case "trace", "debug":
		gormLevel = gormlogger.Info
	case "error":
		gormLevel = gormlogger.Error
	}

	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
	})
}
