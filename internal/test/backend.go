package test

import (
	"context"
	"sync"

	"github.com/canaryports/canaryports/internal/firewall"
)

var _ firewall.Backend = &FakeBackend{}

// Operations recorded by FakeBackend.
const (
	OpBlockIPv4   = "BlockIPv4"
	OpBlockIPv6   = "BlockIPv6"
	OpUnblockIPv4 = "UnblockIPv4"
	OpUnblockIPv6 = "UnblockIPv6"
)

// BackendCall is one call received by FakeBackend.
type BackendCall struct {
	Op      string
	Address string
}

// FakeBackend is an in-memory firewall backend recording every call.
type FakeBackend struct {
	mu       sync.Mutex
	calls    []BackendCall
	failures map[BackendCall]error
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{failures: map[BackendCall]error{}}
}

// FailOn makes op fail with err. An empty addr matches every address.
func (f *FakeBackend) FailOn(op, addr string, err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[BackendCall{Op: op, Address: addr}] = err
	return f
}

// Heal removes all configured failures.
func (f *FakeBackend) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = map[BackendCall]error{}
}

// Calls returns every call received so far, in order.
func (f *FakeBackend) Calls() []BackendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BackendCall(nil), f.calls...)
}

// Addresses returns the addresses passed to op, in order.
func (f *FakeBackend) Addresses(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c.Address)
		}
	}
	return out
}

func (f *FakeBackend) Name() string { return "fake" }

func (f *FakeBackend) BlockIPv4(_ context.Context, addr string) error {
	return f.record(OpBlockIPv4, addr)
}

func (f *FakeBackend) BlockIPv6(_ context.Context, addr string) error {
	return f.record(OpBlockIPv6, addr)
}

func (f *FakeBackend) UnblockIPv4(_ context.Context, addr string) error {
	return f.record(OpUnblockIPv4, addr)
}

func (f *FakeBackend) UnblockIPv6(_ context.Context, addr string) error {
	return f.record(OpUnblockIPv6, addr)
}

func (f *FakeBackend) record(op, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, BackendCall{Op: op, Address: addr})
	if err, ok := f.failures[BackendCall{Op: op, Address: addr}]; ok {
		return err
	}
	return f.failures[BackendCall{Op: op}]
}
