// Package logging configures the process-wide structured logger used
// across the engine's components.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing text-formatted entries to stderr at
// level (info when level does not parse). It adds no fields; Component tags
// entries with the subsystem that emitted them.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	log.Level = parseLevel(level)
	return log
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Component returns an entry pre-tagged with "component", the convention
// every package in this module uses when logging.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
