package canary_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/canaryports/canaryports/internal/canary"
)

// peerListener makes every accepted connection appear to come from peer.
type peerListener struct {
	net.Listener
	peer net.Addr
}

func (l *peerListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &peerConn{Conn: c, peer: l.peer}, nil
}

type peerConn struct {
	net.Conn
	peer net.Addr
}

func (c *peerConn) RemoteAddr() net.Addr { return c.peer }

// listenAs binds a free loopback port and rewrites peers to peer. The bound
// address is sent on bound.
func listenAs(peer string, bound chan<- net.Addr) canary.ListenFunc {
	return func(ctx context.Context, network, _ string) (net.Listener, error) {
		ln, err := (&net.ListenConfig{}).Listen(ctx, network, "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		bound <- ln.Addr()
		return &peerListener{
			Listener: ln,
			peer:     &net.TCPAddr{IP: net.ParseIP(peer), Port: 49152},
		}, nil
	}
}

// failingListener fails every Accept until closed.
type failingListener struct {
	once    sync.Once
	closed  chan struct{}
	accepts atomic.Int32
}

func newFailingListener() *failingListener {
	return &failingListener{closed: make(chan struct{})}
}

func (l *failingListener) Accept() (net.Conn, error) {
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	default:
	}
	l.accepts.Add(1)
	return nil, errors.New("accept4: too many open files")
}

func (l *failingListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *failingListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9001}
}

type recorder struct {
	events chan canary.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan canary.Event, 32)}
}

func (r *recorder) Report(_ context.Context, ev canary.Event) {
	r.events <- ev
}

func (r *recorder) next(t *testing.T) canary.Event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for canary event")
		return canary.Event{}
	}
}

type countingBlocker struct {
	next  canary.Blocker
	err   error
	calls atomic.Int32
	mu    sync.Mutex
	addrs []string
}

func (b *countingBlocker) BlockIP(ctx context.Context, addr string) error {
	b.calls.Add(1)
	b.mu.Lock()
	b.addrs = append(b.addrs, addr)
	b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if b.next != nil {
		return b.next.BlockIP(ctx, addr)
	}
	return nil
}

func (b *countingBlocker) Addresses() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.addrs...)
}

// probe connects to addr and expects the server to close without sending data.
func probe(t *testing.T, addr net.Addr) {
	t.Helper()
	g := NewWithT(t)
	conn, err := net.DialTimeout("tcp", addr.String(), 5*time.Second)
	g.Expect(err).NotTo(HaveOccurred())
	defer conn.Close()
	g.Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
	n, err := conn.Read(make([]byte, 1))
	g.Expect(n).To(BeZero())
	g.Expect(err).To(MatchError(io.EOF))
}
