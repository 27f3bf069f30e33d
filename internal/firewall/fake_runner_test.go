package firewall

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner records command lines and answers from a table keyed by the
// joined command line. Unknown commands succeed with no output.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses map[string]fakeResponse
}

type fakeResponse struct {
	out string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) on(cmdline, out string, err error) *fakeRunner {
	f.responses[cmdline] = fakeResponse{out: out, err: err}
	return f
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)
	resp := f.responses[cmdline]
	if resp.err != nil {
		return []byte(resp.out), &CommandError{Args: append([]string{name}, args...), Output: resp.out, Err: resp.err}
	}
	return []byte(resp.out), nil
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
