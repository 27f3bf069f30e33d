// Package canary runs TCP listeners on ports nothing legitimate uses and acts on
// every peer that connects.
package canary

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/canaryports/canaryports/internal/address"
	"github.com/canaryports/canaryports/internal/blocker"
	"github.com/canaryports/canaryports/internal/logger"
	"github.com/canaryports/canaryports/internal/retry"
)

const (
	DefaultMaxFailures   = 10
	DefaultFailureWindow = time.Minute

	acceptBackoff = 10 * time.Millisecond
)

// Blocker blocks a peer address. *blocker.Controller implements it.
type Blocker interface {
	BlockIP(ctx context.Context, addr string) error
}

// ListenFunc opens the listening socket.
type ListenFunc func(ctx context.Context, network, addr string) (net.Listener, error)

// Config configures a Listener.
type Config struct {
	// Port to listen on. Zero picks a free port.
	Port int
	// Address is the local address to bind. Empty binds all addresses.
	Address string
	Mode    Mode
	// Blocker is required in Enforcing mode.
	Blocker Blocker
	// Reporter defaults to logging events.
	Reporter Reporter
	// Allowlist holds peers that are never blocked.
	Allowlist *address.Allowlist
	// MaxFailures unexpected failures are tolerated per FailureWindow before
	// the listener gives up. Both zero selects the defaults.
	MaxFailures   int
	FailureWindow time.Duration
	Logger        *zap.Logger
	// Listen defaults to net.ListenConfig.Listen.
	Listen ListenFunc
}

// Listener is a running canary port.
type Listener struct {
	port      int
	mode      Mode
	ln        net.Listener
	blocker   Blocker
	reporter  Reporter
	allowlist *address.Allowlist
	log       *zap.Logger
	charge    retry.HandleError
	now       func() time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	stopAfter func() bool

	running  atomic.Bool
	stopOnce sync.Once
	stopping chan struct{}
	done     chan struct{}

	errMu sync.Mutex
	err   error
}

// Start binds the port and serves it in a new goroutine. The listener stops
// when ctx is cancelled, Stop is called or the failure budget is exhausted.
func Start(ctx context.Context, cfg Config) (*Listener, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid canary port %d", cfg.Port)
	}
	if cfg.Mode != Enforcing && cfg.Mode != DetectionOnly {
		return nil, fmt.Errorf("invalid canary mode %s", cfg.Mode)
	}
	if cfg.Mode == Enforcing && cfg.Blocker == nil {
		return nil, errors.New("enforcing canary requires a blocker")
	}
	if cfg.MaxFailures < 0 || cfg.FailureWindow < 0 {
		return nil, fmt.Errorf("invalid failure budget %d per %s", cfg.MaxFailures, cfg.FailureWindow)
	}
	if cfg.MaxFailures == 0 && cfg.FailureWindow == 0 {
		cfg.MaxFailures = DefaultMaxFailures
		cfg.FailureWindow = DefaultFailureWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewLogReporter(cfg.Logger)
	}
	if cfg.Listen == nil {
		lc := &net.ListenConfig{}
		cfg.Listen = lc.Listen
	}

	ln, err := cfg.Listen(ctx, "tcp", net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("listening on canary port %d: %w", cfg.Port, err)
	}
	port := cfg.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok && port == 0 {
		port = tcp.Port
	}

	l := &Listener{
		port:      port,
		mode:      cfg.Mode,
		ln:        ln,
		blocker:   cfg.Blocker,
		reporter:  cfg.Reporter,
		allowlist: cfg.Allowlist,
		log:       cfg.Logger.With(zap.Int("port", port), zap.Stringer("mode", cfg.Mode)),
		charge:    retry.NewRateLimitedErrorHandler(cfg.MaxFailures, cfg.FailureWindow),
		now:       time.Now,
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	l.ctx, l.cancel = context.WithCancel(logger.WithFields(context.WithoutCancel(ctx), zap.Int("canaryPort", port)))
	l.running.Store(true)
	l.stopAfter = context.AfterFunc(ctx, l.Stop)

	go l.serve()
	l.log.Info("Canary listening", zap.Stringer("addr", ln.Addr()))
	return l, nil
}

// Stop closes the socket and waits for the accept goroutine to exit. It is
// safe to call more than once and after the listener failed.
func (l *Listener) Stop() {
	l.shutdown(nil)
	<-l.done
}

// Done is closed once the accept goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that stopped the listener, or nil after a normal stop.
func (l *Listener) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

func (l *Listener) Port() int { return l.port }

func (l *Listener) Mode() Mode { return l.mode }

func (l *Listener) Running() bool { return l.running.Load() }

// Addr is the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func (l *Listener) shutdown(cause error) {
	l.stopOnce.Do(func() {
		l.errMu.Lock()
		l.err = cause
		l.errMu.Unlock()

		l.running.Store(false)
		close(l.stopping)
		l.cancel()
		if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.log.Debug("Closing canary socket", zap.Error(err))
		}
		if cause != nil {
			l.log.Error("Canary stopped", zap.Error(cause))
		} else {
			l.log.Info("Canary stopped")
		}
	})
}

func (l *Listener) serve() {
	defer close(l.done)
	defer l.stopAfter()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if !l.running.Load() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				l.shutdown(fmt.Errorf("canary socket closed unexpectedly: %w", err))
				return
			}
			l.log.Warn("Accepting connection", zap.Error(err))
			if ferr := l.charge(err); ferr != nil {
				l.shutdown(ferr)
				return
			}
			select {
			case <-l.stopping:
				return
			case <-time.After(acceptBackoff):
			}
			continue
		}

		if err := l.handle(conn); err != nil {
			if ferr := l.charge(err); ferr != nil {
				l.shutdown(ferr)
				return
			}
		}
	}
}

// handle closes conn without reading or writing and acts on its peer. It
// returns the errors that count against the failure budget.
func (l *Listener) handle(conn net.Conn) error {
	remote := conn.RemoteAddr()
	if err := conn.Close(); err != nil {
		l.log.Debug("Closing probe connection", zap.Error(err))
	}

	ev := Event{Port: l.port, Mode: l.mode, Time: l.now()}
	peer, ok := address.FromNetAddr(remote)
	if !ok {
		ev.Action = ActionFailed
		ev.Err = fmt.Errorf("unrecognized peer address %v", remote)
		l.reporter.Report(l.ctx, ev)
		return ev.Err
	}
	ev.Peer = peer

	var unexpected error
	switch {
	case l.allowlist.Contains(peer):
		ev.Action = ActionIgnored
	case l.mode == DetectionOnly:
		ev.Action = ActionObserved
	default:
		err := l.blocker.BlockIP(l.ctx, peer.String())
		switch {
		case err == nil:
			ev.Action = ActionBlocked
		case blocker.IsRecoverable(err):
			ev.Action = ActionFailed
			ev.Err = err
		default:
			ev.Action = ActionFailed
			ev.Err = err
			unexpected = err
		}
	}
	l.reporter.Report(l.ctx, ev)
	return unexpected
}
