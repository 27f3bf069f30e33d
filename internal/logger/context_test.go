package logger_test

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/canaryports/canaryports/internal/logger"
)

func TestFromContext(t *testing.T) {
	g := NewWithT(t)
	devLog, err := zap.NewDevelopment()
	g.Expect(err).NotTo(HaveOccurred())

	testCases := []struct {
		name   string
		logger *zap.Logger
		want   *zap.Logger
	}{
		{
			name:   "has logger",
			logger: devLog,
			want:   devLog,
		},
		{
			name:   "no logger",
			logger: nil,
			want:   zap.NewNop(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewWithT(t)
			ctx := context.Background()

			if tc.logger != nil {
				ctx = logger.NewContext(ctx, tc.logger)
			}

			g.Expect(logger.FromContext(ctx)).To(Equal(tc.want))
		})
	}
}

func TestWithFields(t *testing.T) {
	g := NewWithT(t)
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.NewContext(context.Background(), zap.New(core))

	ctx = logger.WithFields(ctx, zap.Int("port", 2323))
	logger.FromContext(ctx).Info("Probe detected")

	g.Expect(logs.Len()).To(Equal(1))
	g.Expect(logs.All()[0].ContextMap()).To(HaveKeyWithValue("port", int64(2323)))
}
