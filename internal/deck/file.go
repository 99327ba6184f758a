package deck

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func readYamlFile[T any](fsys fs.FS, path string) (T, error) {
	var result T

	file, err := fsys.Open(path)
	if err != nil {
		return result, fmt.Errorf("fsys.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(&result); err != nil {
		return result, fmt.Errorf("yaml.NewDecoder().Decode() > %w", err)
	}
	return result, nil
}

// WriteYamlFile writes data as a YAML document to path
func WriteYamlFile[T any](path string, data T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return EncodeYaml(file, data)
}

func EncodeYaml[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoder.Encode() > %w", err)
	}
	return encoder.Close()
}

// yamlFile represents a YAML file with its path and contents
type yamlFile[T any] struct {
	path     string
	contents T
}

func isYamlFile(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return false
	}
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

func loadYamlFiles[T any](fsys fs.FS, filter func(path string, entry fs.DirEntry) bool) ([]yamlFile[T], error) {
	var files []yamlFile[T]

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !filter(path, entry) {
			return nil
		}

		contents, err := readYamlFile[T](fsys, path)
		if err != nil {
			return fmt.Errorf("readYamlFile(%s) > %w", path, err)
		}

		files = append(files, yamlFile[T]{
			path:     path,
			contents: contents,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs.WalkDir() > %w", err)
	}
	return files, nil
}
