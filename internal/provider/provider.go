// Package provider talks to the generative content service that supplies
// etymology data and assistant replies.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Provider is the remote content service. Each call is independent: no
// retry, caching, or deduplication of identical in-flight requests.
type Provider interface {
	// FetchEtymology returns structured etymology data for name.
	FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error)
	// FetchReply returns the assistant's answer to message given the
	// transcript so far. Substituting a user-safe fallback on failure is the
	// caller's job.
	FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error)
}

// Operation names used in Error.Op.
const (
	OpEtymology = "etymology"
	OpChat      = "chat"
)

// Error is returned for any failure of a remote content fetch: transport
// errors, non-success statuses, and payloads that cannot be parsed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsProviderError reports whether err is or wraps a *Error.
func IsProviderError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

func wrap(op string, err error) error {
	if err == nil || IsProviderError(err) {
		return err
	}
	return &Error{Op: op, Err: err}
}
