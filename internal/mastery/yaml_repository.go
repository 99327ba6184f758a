package mastery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLRepository keeps one YAML file per user and deck under a directory
type YAMLRepository struct {
	directory string
}

func NewYAMLRepository(directory string) *YAMLRepository {
	return &YAMLRepository{directory: directory}
}

func (r *YAMLRepository) path(userID string, deckKey string) string {
	return filepath.Join(r.directory, userKey(userID), deckKey+".yml")
}

func (r *YAMLRepository) Load(_ context.Context, userID string, deckKey string) (Map, error) {
	path := r.path(userID, deckKey)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Map{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	records := Map{}
	if err := yaml.NewDecoder(file).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml.NewDecoder().Decode() > %w", err)
	}
	return records, nil
}

func (r *YAMLRepository) Save(_ context.Context, userID string, deckKey string, records Map) error {
	path := r.path(userID, deckKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encoder.Encode() > %w", err)
	}
	return encoder.Close()
}
