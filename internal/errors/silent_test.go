package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/canaryports/canaryports/internal/errors"
)

func TestSilent(t *testing.T) {
	g := NewWithT(t)
	cause := stderrors.New("2 of 5 addresses could not be unblocked")
	silent := errors.NewSilent(cause)

	g.Expect(errors.IsSilent(silent)).To(BeTrue())
	g.Expect(errors.IsSilent(fmt.Errorf("clear: %w", silent))).To(BeTrue())
	g.Expect(errors.IsSilent(cause)).To(BeFalse())
	g.Expect(errors.IsSilent(nil)).To(BeFalse())
	g.Expect(silent).To(MatchError(cause))
}
