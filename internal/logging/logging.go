package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a text logger on stderr (or w). Unknown levels fall back to warn
// so normal CLI output is not interleaved with info lines.
func New(level string, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(parseLevel(level))
	return log
}

func parseLevel(lvl string) logrus.Level {
	l, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(lvl)))
	if err != nil {
		return logrus.WarnLevel
	}
	return l
}
