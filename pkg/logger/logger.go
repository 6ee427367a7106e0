package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg = New("info")

// New builds a JSON logger writing to stdout. An unknown level falls back to info.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Init replaces the process logger. Called once from main.
func Init(level string) *logrus.Logger {
	logg = New(level)
	return logg
}

func Get() *logrus.Logger {
	return logg
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
