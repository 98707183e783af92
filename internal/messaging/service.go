// Package messaging provides notification delivery for planpipe.
package messaging

import (
	"context"
	"log/slog"
)

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier. Returns the canonicalized recipient and an error if
	// validation fails. This allows each service to implement its own
	// recipient validation rules.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error
}

// NopService discards all messages. Used when no SMS credentials are
// configured so the rest of the pipeline keeps working.
type NopService struct{}

var _ Service = NopService{}

func (NopService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (NopService) SendMessage(ctx context.Context, to string, body string) error {
	slog.Debug("NopService.SendMessage: discarding message", "to", to, "body_length", len(body))
	return nil
}
