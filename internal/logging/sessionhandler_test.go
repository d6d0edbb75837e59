package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	tick      int64
	destroyed bool
}

func (s *fakeSession) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Uint64("session", 3),
		slog.Int64("tick", s.tick),
		slog.Bool("destroyed", s.destroyed),
	}
}

func TestSessionHandler_StampsCurrentState(t *testing.T) {
	var buf bytes.Buffer
	sess := &fakeSession{tick: 10}
	log := slog.New(NewSessionHandler(slog.NewTextHandler(&buf, nil), sess))

	log.Info("cruise")
	sess.tick, sess.destroyed = 11, true
	log.Info("impact")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "tick=10")
	assert.Contains(t, string(lines[0]), "destroyed=false")
	assert.Contains(t, string(lines[1]), "tick=11")
	assert.Contains(t, string(lines[1]), "destroyed=true")
}

func TestSessionHandler_CallerKeysWin(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewSessionHandler(slog.NewTextHandler(&buf, nil), &fakeSession{tick: 10}))

	log.Info("replayed", "tick", 99)
	assert.Contains(t, buf.String(), "tick=99")
	assert.NotContains(t, buf.String(), "tick=10")

	buf.Reset()
	log.With("session", "replay").Info("bound")
	assert.Contains(t, buf.String(), "session=replay")
	assert.NotContains(t, buf.String(), "session=3")
	assert.Contains(t, buf.String(), "tick=10")
}

func TestSessionHandler_NilSession(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewSessionHandler(slog.NewTextHandler(&buf, nil), nil)).Info("plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "tick=")
}

func TestSessionHandler_GroupKeepsStamp(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewSessionHandler(slog.NewTextHandler(&buf, nil), &fakeSession{tick: 4}))

	log.With("component", "flight").WithGroup("cmd").Info("kill", "ok", true)
	out := buf.String()
	assert.Contains(t, out, "component=flight")
	assert.Contains(t, out, "cmd.ok=true")
	assert.Contains(t, out, "cmd.tick=4")
}
