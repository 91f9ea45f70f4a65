package port

import (
	"context"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

type SessionRepository interface {
	// Get retrieves the chat's session, nil when none (or expired)
	Get(ctx context.Context, chatID int64) (*domain.Session, error)

	// Put stores the session, replacing any previous one for the chat
	Put(ctx context.Context, session domain.Session) error

	// Delete removes the chat's session; deleting a missing session is not an error
	Delete(ctx context.Context, chatID int64) error
}
