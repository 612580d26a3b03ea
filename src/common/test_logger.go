package common

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestLogLevel is the level used by test loggers when the MURMUR_TEST_LOG
// environment variable does not name one.
const TestLogLevel = logrus.DebugLevel

// This can be used as the destination for a logger and it'll
// map them into calls to testing.T.Log, so that you only see
// the logging for failed tests.
type testLoggerAdapter struct {
	t      testing.TB
	prefix string
}

func (a *testLoggerAdapter) Write(d []byte) (int, error) {
	n := len(d)
	if n > 0 && d[n-1] == '\n' {
		d = d[:n-1]
	}
	if a.prefix != "" {
		a.t.Log(a.prefix + ": " + string(d))
		return n, nil
	}
	a.t.Log(string(d))
	return n, nil
}

// NewTestLogger returns a logger that writes through t.Log at the given level.
func NewTestLogger(t testing.TB, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.Out = &testLoggerAdapter{t: t}
	logger.Level = level
	if l, err := logrus.ParseLevel(os.Getenv("MURMUR_TEST_LOG")); err == nil {
		logger.Level = l
	}
	return logger
}

// NewTestEntry returns an entry of a test logger with the prefix field set.
func NewTestEntry(t testing.TB, prefix string) *logrus.Entry {
	return NewTestLogger(t, TestLogLevel).WithField("prefix", prefix)
}
