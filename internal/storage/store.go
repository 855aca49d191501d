// Package storage persists the address book.
package storage

import (
	"context"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

// Store loads and saves a whole address book.
type Store interface {
	Load(ctx context.Context) (*domain.AddressBook, error)
	Save(ctx context.Context, book *domain.AddressBook) error
	Close() error
}
