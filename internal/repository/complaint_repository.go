package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/complaint-desk/internal/models"
)

// ComplaintRepository reads and replaces the complaints collection.
type ComplaintRepository struct {
	store RecordStore
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(store RecordStore) *ComplaintRepository {
	return &ComplaintRepository{store: store}
}

// List returns every complaint in store order. An absent collection is empty.
func (r *ComplaintRepository) List(ctx context.Context) ([]models.Complaint, error) {
	complaints := make([]models.Complaint, 0)
	if _, err := r.store.Get(ctx, KeyComplaints, &complaints); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	if complaints == nil {
		complaints = make([]models.Complaint, 0)
	}
	return complaints, nil
}

// ReplaceAll persists complaints as the whole collection.
func (r *ComplaintRepository) ReplaceAll(ctx context.Context, complaints []models.Complaint) error {
	if complaints == nil {
		complaints = make([]models.Complaint, 0)
	}
	if err := r.store.Set(ctx, KeyComplaints, complaints); err != nil {
		return fmt.Errorf("replace complaints: %w", err)
	}
	return nil
}
