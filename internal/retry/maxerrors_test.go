package retry_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/canaryports/canaryports/internal/retry"
)

func TestNewMaxConsecutiveErrorHandler(t *testing.T) {
	g := NewWithT(t)
	errAccept := errors.New("accept: too many open files")

	handler := retry.NewMaxConsecutiveErrorHandler(2)
	g.Expect(handler(errAccept)).To(Succeed())
	g.Expect(handler(errAccept)).To(Succeed())
	err := handler(errAccept)
	g.Expect(err).To(MatchError(ContainSubstring("max attempts 2 reached")))
	g.Expect(errors.Is(err, errAccept)).To(BeTrue())

	g.Expect(handler(nil)).To(Succeed())
	g.Expect(handler(errAccept)).To(Succeed())
}

func TestNewRateLimitedErrorHandler(t *testing.T) {
	errAccept := errors.New("accept: too many open files")

	t.Run("burst above budget escalates", func(t *testing.T) {
		g := NewWithT(t)
		handler := retry.NewRateLimitedErrorHandler(3, time.Hour)
		for i := 0; i < 3; i++ {
			g.Expect(handler(errAccept)).To(Succeed(), "error %d", i+1)
		}
		err := handler(errAccept)
		g.Expect(err).To(MatchError(ContainSubstring("more than 3 errors in 1h0m0s")))
		g.Expect(errors.Is(err, errAccept)).To(BeTrue())
	})

	t.Run("nil errors do not consume budget", func(t *testing.T) {
		g := NewWithT(t)
		handler := retry.NewRateLimitedErrorHandler(1, time.Hour)
		for i := 0; i < 10; i++ {
			g.Expect(handler(nil)).To(Succeed())
		}
		g.Expect(handler(errAccept)).To(Succeed())
		g.Expect(handler(errAccept)).To(HaveOccurred())
	})

	t.Run("budget refills over time", func(t *testing.T) {
		g := NewWithT(t)
		handler := retry.NewRateLimitedErrorHandler(1, 20*time.Millisecond)
		g.Expect(handler(errAccept)).To(Succeed())
		time.Sleep(40 * time.Millisecond)
		g.Expect(handler(errAccept)).To(Succeed())
	})

	t.Run("zero budget escalates immediately", func(t *testing.T) {
		g := NewWithT(t)
		handler := retry.NewRateLimitedErrorHandler(0, time.Minute)
		g.Expect(handler(nil)).To(Succeed())
		g.Expect(handler(errAccept)).To(MatchError(ContainSubstring("no error budget configured")))
	})
}
