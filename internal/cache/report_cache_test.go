package cache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"ledger-service/pkg/config"
)

func TestKey(t *testing.T) {
	org := uint(7)
	tests := []struct {
		name      string
		view      string
		scope     *uint
		qualifier string
		want      string
	}{
		{"global view", "summary", nil, "month", "report:summary:global:month"},
		{"scoped view", "chart", &org, "year", "report:chart:org:7:year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.view, tt.scope, tt.qualifier); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	cache := New(&config.RedisConfig{}, zap.NewNop())
	if cache != nil {
		t.Fatal("unconfigured redis must yield a nil cache")
	}

	var dest map[string]int
	if cache.Get(context.Background(), "report:summary:global:month", &dest) {
		t.Error("nil cache must always miss")
	}
	// Must not panic.
	cache.Set(context.Background(), "report:summary:global:month", map[string]int{"a": 1})
}
