package canary

import (
	"context"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

// Action is the outcome of a connection on a canary port.
type Action string

const (
	ActionBlocked  Action = "blocked"
	ActionObserved Action = "observed"
	ActionIgnored  Action = "ignored"
	ActionFailed   Action = "failed"
)

// Event describes one connection to a canary port.
type Event struct {
	Port   int
	Mode   Mode
	Peer   netip.Addr
	Time   time.Time
	Action Action
	// Err is set when Action is ActionFailed.
	Err error
}

// Reporter receives every event of a listener. Report is called from the
// accept goroutine; slow reporters delay the next accept.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(ctx context.Context, ev Event)

func (f ReporterFunc) Report(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Annotator adds log fields describing a peer.
type Annotator interface {
	Annotate(ctx context.Context, peer netip.Addr) []zap.Field
}

type logReporter struct {
	log        *zap.Logger
	annotators []Annotator
}

// NewLogReporter logs every event, with the fields of each annotator appended.
func NewLogReporter(log *zap.Logger, annotators ...Annotator) Reporter {
	return &logReporter{log: log, annotators: annotators}
}

func (r *logReporter) Report(ctx context.Context, ev Event) {
	fields := []zap.Field{
		zap.Int("port", ev.Port),
		zap.Stringer("mode", ev.Mode),
		zap.Stringer("peer", ev.Peer),
		zap.String("action", string(ev.Action)),
	}
	for _, a := range r.annotators {
		fields = append(fields, a.Annotate(ctx, ev.Peer)...)
	}
	if ev.Err != nil {
		r.log.Warn("Connection on canary port", append(fields, zap.Error(ev.Err))...)
		return
	}
	r.log.Info("Connection on canary port", fields...)
}
