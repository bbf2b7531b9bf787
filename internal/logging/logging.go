package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. It is constructed once in main and passed to
// consumers rather than exposed as a package global.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}
