package logbuf

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestBufferCapturesLogLines(t *testing.T) {
	buf := New(0)
	logger := logrus.New()
	logger.AddHook(buf)

	logger.Info("first line")
	logger.Warn("second line")

	out := buf.String()
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
	assert.Less(t, strings.Index(out, "first line"), strings.Index(out, "second line"))
}

func TestBufferDropsOldestWhenFull(t *testing.T) {
	buf := New(200)
	logger := logrus.New()
	logger.AddHook(buf)

	for i := 0; i < 50; i++ {
		logger.Infof("line %03d padded to take up some space", i)
	}

	out := buf.String()
	assert.LessOrEqual(t, len(out), 200)
	assert.NotContains(t, out, "line 000")
	assert.Contains(t, out, "line 049")
}
