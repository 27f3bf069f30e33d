package canary_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/canaryports/canaryports/internal/canary"
)

type staticAnnotator []zap.Field

func (a staticAnnotator) Annotate(context.Context, netip.Addr) []zap.Field { return a }

func TestLogReporter(t *testing.T) {
	g := NewWithT(t)
	core, logs := observer.New(zapcore.InfoLevel)
	r := canary.NewLogReporter(zap.New(core), staticAnnotator{zap.String("ptr", "scanner.example.net.")})

	r.Report(context.Background(), canary.Event{
		Port:   2323,
		Mode:   canary.Enforcing,
		Peer:   netip.MustParseAddr("203.0.113.7"),
		Time:   time.Now(),
		Action: canary.ActionBlocked,
	})
	r.Report(context.Background(), canary.Event{
		Port:   2323,
		Mode:   canary.Enforcing,
		Peer:   netip.MustParseAddr("2001:db8::1"),
		Action: canary.ActionFailed,
		Err:    errors.New("iptables: exit status 4"),
	})

	entries := logs.All()
	g.Expect(entries).To(HaveLen(2))
	g.Expect(entries[0].Level).To(Equal(zapcore.InfoLevel))
	g.Expect(entries[0].ContextMap()).To(Equal(map[string]interface{}{
		"port":   int64(2323),
		"mode":   "enforcing",
		"peer":   "203.0.113.7",
		"action": "blocked",
		"ptr":    "scanner.example.net.",
	}))
	g.Expect(entries[1].Level).To(Equal(zapcore.WarnLevel))
	g.Expect(entries[1].ContextMap()).To(HaveKeyWithValue("error", "iptables: exit status 4"))
}

func TestReporterFunc(t *testing.T) {
	g := NewWithT(t)
	var got canary.Event
	r := canary.ReporterFunc(func(_ context.Context, ev canary.Event) { got = ev })
	r.Report(context.Background(), canary.Event{Port: 22, Action: canary.ActionObserved})
	g.Expect(got.Port).To(Equal(22))
}
