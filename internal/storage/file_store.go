package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Danyil-SY/assistant-bot/internal/domain"
	"github.com/rs/zerolog"
)

// FileStore keeps the address book as one JSON document.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string { return s.path }

// Load returns an empty book when the file does not exist yet.
func (s *FileStore) Load(ctx context.Context) (*domain.AddressBook, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info().Str("path", s.path).Msg("No address book on disk, starting empty")
		return domain.NewAddressBook(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read address book: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode address book %s: %w", s.path, err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("address book %s has unsupported version %d", s.path, doc.Version)
	}
	book, err := fromContacts(doc.Contacts)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("path", s.path).Int("contacts", book.Len()).Msg("Loaded address book")
	return book, nil
}

// Save writes to a temporary file next to the target and renames it into place.
func (s *FileStore) Save(ctx context.Context, book *domain.AddressBook) error {
	b, err := json.MarshalIndent(toDocument(book), "", "  ")
	if err != nil {
		return fmt.Errorf("encode address book: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".addressbook-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(s.mode()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) mode() os.FileMode {
	if info, err := os.Stat(s.path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

func (s *FileStore) Close() error { return nil }
