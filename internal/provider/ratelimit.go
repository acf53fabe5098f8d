package provider

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Limited wraps a Provider with a token bucket shared by both operations.
type Limited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewLimited allows rps requests per second through to next. A non-positive
// rps disables limiting.
func NewLimited(next Provider, rps float64) *Limited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (l *Limited) FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, wrap(OpEtymology, err)
	}
	return l.next.FetchEtymology(ctx, name)
}

func (l *Limited) FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", wrap(OpChat, err)
	}
	return l.next.FetchReply(ctx, history, message)
}
