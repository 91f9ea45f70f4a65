package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/snikitin/parts-bot/internal/core/domain"
	"github.com/snikitin/parts-bot/internal/port"
)

// InventoryService owns validation and the ledger policy around the
// inventory repository. All quantity mutations go through here.
type InventoryService struct {
	inventory port.InventoryRepository
	ledger    port.LedgerRepository

	// recordAddInLedger controls whether creating a part also writes an
	// add ledger entry. When enabled the ledger reconciles exactly:
	// quantity == sum(add) - sum(issue).
	recordAddInLedger bool
}

func NewInventoryService(inventory port.InventoryRepository, ledger port.LedgerRepository, recordAddInLedger bool) *InventoryService {
	return &InventoryService{
		inventory:         inventory,
		ledger:            ledger,
		recordAddInLedger: recordAddInLedger,
	}
}

// CreatePart validates and inserts a new part. The actor is recorded in
// the add ledger entry when that policy is enabled.
func (s *InventoryService) CreatePart(ctx context.Context, name string, quantity int, actor string) (domain.Part, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Part{}, fmt.Errorf("%w: empty part name", domain.ErrInvalidInput)
	}
	if quantity < 1 {
		return domain.Part{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	part, err := s.inventory.CreatePart(ctx, name, quantity)
	if err != nil {
		return domain.Part{}, storeErr(err)
	}

	if s.recordAddInLedger {
		actor = strings.TrimSpace(actor)
		if actor == "" {
			actor = "-"
		}
		_, err := s.ledger.Append(ctx, domain.LedgerEntry{
			PartID:   part.ID,
			Quantity: quantity,
			TakenBy:  actor,
			Kind:     domain.EntryKindAdd,
		})
		if err != nil {
			return domain.Part{}, storeErr(err)
		}
	}

	return part, nil
}

func (s *InventoryService) ListParts(ctx context.Context) ([]domain.Part, error) {
	parts, err := s.inventory.ListParts(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return parts, nil
}

func (s *InventoryService) AvailableParts(ctx context.Context) ([]domain.Part, error) {
	parts, err := s.inventory.AvailableParts(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return parts, nil
}

func (s *InventoryService) GetPart(ctx context.Context, id int64) (domain.Part, error) {
	part, err := s.inventory.GetPart(ctx, id)
	if err != nil {
		return domain.Part{}, storeErr(err)
	}
	return part, nil
}

// IssuePart validates and delegates to the repository's atomic issue.
// The repository re-checks stock inside its transaction, so the result
// is authoritative regardless of what the caller observed earlier.
func (s *InventoryService) IssuePart(ctx context.Context, partID int64, quantity int, recipient string) (domain.Part, error) {
	if quantity < 1 {
		return domain.Part{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return domain.Part{}, fmt.Errorf("%w: empty recipient", domain.ErrInvalidInput)
	}

	part, err := s.inventory.IssuePart(ctx, partID, quantity, recipient)
	if err != nil {
		return domain.Part{}, storeErr(err)
	}
	return part, nil
}

// storeErr passes domain rejections through and folds everything else
// into ErrStoreUnavailable.
func storeErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
