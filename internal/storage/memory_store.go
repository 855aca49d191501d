package storage

import (
	"context"
	"sync"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
)

// MemoryStore keeps the last saved snapshot in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts []ContactRecord
	saves    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*domain.AddressBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fromContacts(s.contacts)
}

func (s *MemoryStore) Save(ctx context.Context, book *domain.AddressBook) error {
	doc := toDocument(book)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = doc.Contacts
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
