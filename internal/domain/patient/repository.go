package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages patient persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// Save persists the patient using optimistic locking on the version
	// column; concurrent credit mutations fail with a concurrency conflict
	Save(ctx context.Context, p *Patient) error
	Create(ctx context.Context, p *Patient) error
}
