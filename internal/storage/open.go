package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/rs/zerolog"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Open builds the store selected by storage.backend. A relative file path is
// resolved against workDir.
func Open(cfg *config.Config, workDir string, logger zerolog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "file":
		path := cfg.Storage.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		return NewFileStore(path, logger), nil
	case "memory":
		return NewMemoryStore(), nil
	case "etcd":
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: time.Duration(cfg.Etcd.DialTimeout * float64(time.Second)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to etcd: %w", err)
		}
		owner, err := os.Hostname()
		if err != nil {
			owner = "unknown-host"
		}
		return NewEtcdStore(client, &cfg.Etcd, owner, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}
