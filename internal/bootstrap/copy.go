package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/pkg/archive"
)

// CopyTree copies the tree rooted at src into dst the way an image COPY
// does: directories, regular files and symlinks keep their names and modes.
// When dst lies inside src it is left out of the copy.
func CopyTree(src, dst string) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source tree: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source tree %s is not a directory", src)
	}
	if src == dst {
		return nil
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	var excludes []string
	if rel, err := filepath.Rel(src, dst); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		excludes = append(excludes, filepath.ToSlash(rel))
	}

	tarball, err := archive.TarWithOptions(src, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return fmt.Errorf("archive %s: %w", src, err)
	}
	defer tarball.Close()

	if err := archive.Untar(tarball, dst, &archive.TarOptions{NoLchown: true}); err != nil {
		return fmt.Errorf("extract into %s: %w", dst, err)
	}
	return os.Chmod(dst, info.Mode().Perm())
}
