package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/complaint-desk/internal/models"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("record not found")

// AccountRepository reads and replaces the accounts collection.
type AccountRepository struct {
	store RecordStore
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(store RecordStore) *AccountRepository {
	return &AccountRepository{store: store}
}

// List returns every account in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	accounts := make([]models.Account, 0)
	if _, err := r.store.Get(ctx, KeyAccounts, &accounts); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if accounts == nil {
		accounts = make([]models.Account, 0)
	}
	return accounts, nil
}

// FindByEmail returns the first account registered with email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	accounts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email == email {
			return &accounts[i], nil
		}
	}
	return nil, ErrNotFound
}

// ReplaceAll persists accounts as the whole collection.
func (r *AccountRepository) ReplaceAll(ctx context.Context, accounts []models.Account) error {
	if accounts == nil {
		accounts = make([]models.Account, 0)
	}
	if err := r.store.Set(ctx, KeyAccounts, accounts); err != nil {
		return fmt.Errorf("replace accounts: %w", err)
	}
	return nil
}
