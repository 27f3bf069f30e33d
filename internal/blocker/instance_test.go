package blocker_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/canaryports/canaryports/internal/blocker"
	"github.com/canaryports/canaryports/internal/test"
)

func TestInstanceIsProcessWide(t *testing.T) {
	g := NewWithT(t)
	blocker.ResetInstance()
	t.Cleanup(blocker.ResetInstance)
	ctx := context.Background()

	first := filepath.Join(t.TempDir(), "first.json")
	second := filepath.Join(t.TempDir(), "second.json")

	a, err := blocker.Instance(blocker.Options{LogPath: first, Backend: test.NewFakeBackend()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.BlockIP(ctx, "203.0.113.7")).To(Succeed())

	b, err := blocker.Instance(blocker.Options{LogPath: second, Backend: test.NewFakeBackend()})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(b).To(BeIdenticalTo(a))
	g.Expect(b.Mutex()).To(BeIdenticalTo(a.Mutex()))
	g.Expect(b.BlockedIPs()).To(Equal([]string{"203.0.113.7"}))
	g.Expect(b.LogPath()).To(Equal(first))

	_, err = os.Stat(second)
	g.Expect(os.IsNotExist(err)).To(BeTrue(), "second path must never be used")
}

func TestInstanceConcurrentFirstUse(t *testing.T) {
	g := NewWithT(t)
	blocker.ResetInstance()
	t.Cleanup(blocker.ResetInstance)
	logPath := filepath.Join(t.TempDir(), "blocked.json")

	const callers = 16
	got := make([]*blocker.Controller, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := blocker.Instance(blocker.Options{LogPath: logPath, Backend: test.NewFakeBackend()})
			if err == nil {
				got[i] = c
			}
		}(i)
	}
	wg.Wait()

	for _, c := range got {
		g.Expect(c).To(BeIdenticalTo(got[0]))
	}
	g.Expect(got[0]).NotTo(BeNil())
}

func TestInstanceRetriesFailedConstruction(t *testing.T) {
	g := NewWithT(t)
	blocker.ResetInstance()
	t.Cleanup(blocker.ResetInstance)
	logPath := filepath.Join(t.TempDir(), "blocked.json")
	g.Expect(os.WriteFile(logPath, []byte(`{corrupt`), 0o600)).To(Succeed())

	_, err := blocker.Instance(blocker.Options{LogPath: logPath, Backend: test.NewFakeBackend()})
	g.Expect(blocker.IsPersistence(err)).To(BeTrue())

	g.Expect(os.WriteFile(logPath, []byte(`["10.0.0.1"]`), 0o600)).To(Succeed())
	c, err := blocker.Instance(blocker.Options{LogPath: logPath, Backend: test.NewFakeBackend()})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.BlockedIPs()).To(Equal([]string{"10.0.0.1"}))
}
