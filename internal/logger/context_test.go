package logger_test

import (
	"context"
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/stretchr/testify/assert"
)

type namedLogger struct {
	logger.NoOpLogger
	name string
}

func TestFromContext(t *testing.T) {
	stored := &namedLogger{name: "request"}
	fallback := &namedLogger{name: "handler"}

	tests := []struct {
		name     string
		ctx      context.Context
		fallback logger.Logger
		want     logger.Logger
	}{
		{name: "stored logger wins", ctx: logger.WithContext(context.Background(), stored), fallback: fallback, want: stored},
		{name: "fallback without stored logger", ctx: context.Background(), fallback: fallback, want: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, logger.FromContext(tt.ctx, tt.fallback))
		})
	}
}

func TestFromContext_NilFallback(t *testing.T) {
	assert.NotNil(t, logger.FromContext(context.Background(), nil))
}
