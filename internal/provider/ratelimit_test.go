package provider

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

type countingProvider struct {
	calls atomic.Int32
}

func (c *countingProvider) FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error) {
	c.calls.Add(1)
	return &model.EtymologyResult{Name: name, Meaning: "m"}, nil
}

func (c *countingProvider) FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestLimitedPassesThrough(t *testing.T) {
	next := &countingProvider{}
	l := NewLimited(next, 0)

	for i := 0; i < 5; i++ {
		_, err := l.FetchEtymology(context.Background(), "Ana")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), next.calls.Load())
}

func TestLimitedHonoursContext(t *testing.T) {
	next := &countingProvider{}
	l := NewLimited(next, 0.001)

	// The first call consumes the only token.
	_, err := l.FetchReply(context.Background(), nil, "hi")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.FetchEtymology(ctx, "Ana")
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
	assert.Equal(t, int32(1), next.calls.Load())
}
