package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// fileCache keeps the last good response of a remote source on disk
type fileCache struct {
	rootDir string
}

func newFileCache(cacheDirectory string) *fileCache {
	return &fileCache{
		rootDir: cacheDirectory,
	}
}

func (c *fileCache) filePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.rootDir, hex.EncodeToString(sum[:8])+".json")
}

// fetch returns the result of f and stores it. When f fails, the stored
// result of an earlier call is returned instead.
func (c *fileCache) fetch(key string, f func() ([]byte, error)) ([]byte, error) {
	contents, err := f()
	if err != nil {
		cached, readErr := os.ReadFile(c.filePath(key))
		if readErr != nil {
			return nil, err
		}
		slog.Default().Warn("using cached decks",
			slog.String("source", key),
			slog.Any("error", err),
		)
		return cached, nil
	}

	if err := os.MkdirAll(c.rootDir, 0o755); err != nil {
		return contents, fmt.Errorf("os.MkdirAll(%s) > %w", c.rootDir, err)
	}
	if err := os.WriteFile(c.filePath(key), contents, 0o644); err != nil {
		return contents, fmt.Errorf("os.WriteFile > %w", err)
	}
	return contents, nil
}
