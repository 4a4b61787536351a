package observ

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var root = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "event",
		},
	})
	l.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// Setup reconfigures the process logger. A non-empty file path enables
// size-rotated file output alongside stdout.
func Setup(level, file string, maxSizeMB, maxBackups int) {
	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		root.SetLevel(lvl)
	}
	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
		root.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// Log emits a structured event with arbitrary key/value context.
func Log(event string, kv map[string]any) {
	root.WithFields(logrus.Fields(kv)).Info(event)
}

func Debug(event string, kv map[string]any) {
	root.WithFields(logrus.Fields(kv)).Debug(event)
}

func Warn(event string, kv map[string]any) {
	root.WithFields(logrus.Fields(kv)).Warn(event)
}

func Error(event string, err error, kv map[string]any) {
	root.WithFields(logrus.Fields(kv)).WithError(err).Error(event)
}

// WithComponent returns a component-scoped entry for callers that hold a
// logger rather than going through the package functions.
func WithComponent(component string) *logrus.Entry {
	return root.WithField("component", component)
}
