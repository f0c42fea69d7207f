package config

import (
	"fmt"
	"os"
	"path"
	"runtime"

	"github.com/sirupsen/logrus"
)

var root = &logrus.Logger{
	Out: os.Stderr,
	Formatter: &CustomTextFormatter{
		logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
			// the caller goes into the message instead
			CallerPrettyfier: func(*runtime.Frame) (string, string) { return "", "" },
		},
	},
	Hooks:        make(logrus.LevelHooks),
	Level:        logrus.InfoLevel,
	ReportCaller: true,
}

// NamedLogger creates named package logger.
func NamedLogger(name string) *logrus.Entry {
	return root.WithField("pkg", name)
}

// SetLogLevel parses level ("debug", "info", ...) and applies it to every
// named logger.
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	root.SetLevel(lvl)
	return nil
}

// CustomTextFormatter prefixes each message with the caller's file and line.
type CustomTextFormatter struct {
	logrus.TextFormatter
}

// Format renders a single log entry
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry.HasCaller() {
		entry.Message = fmt.Sprintf("[%-15s:%03d] %s", path.Base(entry.Caller.File), entry.Caller.Line, entry.Message)
	}
	return f.TextFormatter.Format(entry)
}
