package port

import (
	"context"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

type InventoryRepository interface {
	// CreatePart inserts a new part and returns it with its assigned ID
	CreatePart(ctx context.Context, name string, quantity int) (domain.Part, error)

	// ListParts returns all parts ordered by ID ascending
	ListParts(ctx context.Context) ([]domain.Part, error)

	// AvailableParts returns parts with quantity > 0, ordered by ID ascending
	AvailableParts(ctx context.Context) ([]domain.Part, error)

	// GetPart retrieves a part by ID, domain.ErrNotFound when absent
	GetPart(ctx context.Context, id int64) (domain.Part, error)

	// IssuePart atomically decrements stock and appends the issue ledger
	// entry in one transaction. Returns domain.ErrNotFound when the part
	// does not exist and domain.ErrInsufficientStock when quantity exceeds
	// current stock; in both cases nothing is written.
	IssuePart(ctx context.Context, partID int64, quantity int, recipient string) (domain.Part, error)
}
