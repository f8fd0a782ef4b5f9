// Package logging configures the shared logrus logger used across the
// service. Output goes to stdout and, when a log path is configured, to a
// size-rotated file as well.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = logrus.New()

// InitLogger sets up formatting, level and rotation. An empty logPath keeps
// output on stdout only.
func InitLogger(logPath string, verbose bool) {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}

	if logPath == "" {
		Logger.SetOutput(os.Stdout)

		return
	}

	rotated := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	Logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
