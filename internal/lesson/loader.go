package lesson

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads lesson files (one lesson per *.yaml or *.yml file) from a
// directory tree.
type Loader struct {
	basePath string
}

func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

func (l *Loader) BasePath() string { return l.basePath }

// LoadFile parses and validates a single lesson file. A file without an id
// takes its id from the file name.
func (l *Loader) LoadFile(path string) (Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lesson{}, fmt.Errorf("read lesson file: %w", err)
	}
	var ls Lesson
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return Lesson{}, fmt.Errorf("parse lesson file %s: %w", path, err)
	}
	if ls.ID == "" {
		ls.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := Validate(ls); err != nil {
		return Lesson{}, fmt.Errorf("lesson file %s: %w", path, err)
	}
	return ls, nil
}

// LoadAll loads every lesson file under the base directory, sorted by id.
func (l *Loader) LoadAll() ([]Lesson, error) {
	var out []Lesson
	err := filepath.WalkDir(l.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		ls, err := l.LoadFile(path)
		if err != nil {
			return err
		}
		out = append(out, ls)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := 1; i < len(out); i++ {
		if out[i].ID == out[i-1].ID {
			return nil, fmt.Errorf("load lessons: duplicate lesson id %q", out[i].ID)
		}
	}
	return out, nil
}

// Seed loads every lesson and stores it, returning how many were written.
func (l *Loader) Seed(ctx context.Context, store Store) (int, error) {
	lessons, err := l.LoadAll()
	if err != nil {
		return 0, err
	}
	for _, ls := range lessons {
		if err := store.PutLesson(ctx, ls); err != nil {
			return 0, err
		}
	}
	return len(lessons), nil
}
