package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProviderIsInert(t *testing.T) {
	p, err := New(context.Background(), &Config{ServiceName: "test"})
	require.NoError(t, err)

	// Every recording call must be a safe no-op.
	ctx := context.Background()
	p.RecordSubmitted(ctx)
	p.RecordRejected(ctx, "test")
	p.RecordExecuted(ctx)
	p.RecordSlash(ctx, "NonReveal")
	p.RecordReveal(ctx)
	p.RecordVerifyDuration(ctx, time.Millisecond)

	assert.NoError(t, p.Shutdown(ctx))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "constitutiond", cfg.ServiceName)
	assert.Empty(t, cfg.OTLPEndpoint)
}
