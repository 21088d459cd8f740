package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/complaint-desk/internal/models"
)

// SessionRepository holds the current-session pointer.
type SessionRepository struct {
	store RecordStore
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(store RecordStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Current returns the signed-in account, or nil when nobody is signed in.
func (r *SessionRepository) Current(ctx context.Context) (*models.Account, error) {
	var account models.Account
	found, err := r.store.Get(ctx, KeySession, &account)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &account, nil
}

// Set records account as the signed-in account.
func (r *SessionRepository) Set(ctx context.Context, account models.Account) error {
	if err := r.store.Set(ctx, KeySession, account); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Clear removes the pointer.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
