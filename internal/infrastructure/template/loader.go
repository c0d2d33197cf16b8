// Package template loads prompt template definitions from disk. A template
// is a JSON file pairing extraction settings with system/user prompt texts.
package template

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// ErrTemplateNotFound indicates no template with the requested name exists
// in the template directory.
var ErrTemplateNotFound = errors.New("template not found")

// Logger defines the logging interface for the template loader.
type Logger interface {
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Loader scans a directory for *.json template files.
type Loader struct {
	dir    string
	logger Logger
}

// NewLoader creates a Loader for the given directory.
func NewLoader(dir string, log Logger) *Loader {
	return &Loader{dir: dir, logger: log}
}

// Load returns all valid templates, sorted by name. Files that fail to
// parse or validate are logged and skipped; one malformed template never
// hides the rest. A missing directory yields an empty list.
func (l *Loader) Load(ctx context.Context) ([]domain.PromptTemplate, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var templates []domain.PromptTemplate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		tpl, err := loadFile(path)
		if err != nil {
			l.logger.Warn(ctx, "skipping invalid template", map[string]interface{}{
				"file":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		templates = append(templates, tpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Meta.Name < templates[j].Meta.Name
	})

	return templates, nil
}

// Find returns the template with the given name.
func (l *Loader) Find(ctx context.Context, name string) (domain.PromptTemplate, error) {
	templates, err := l.Load(ctx)
	if err != nil {
		return domain.PromptTemplate{}, err
	}
	for _, tpl := range templates {
		if tpl.Meta.Name == name {
			return tpl, nil
		}
	}
	return domain.PromptTemplate{}, ErrTemplateNotFound
}

func loadFile(path string) (domain.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PromptTemplate{}, err
	}

	var tpl domain.PromptTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return domain.PromptTemplate{}, err
	}
	if tpl.Execution.Limit <= 0 {
		tpl.Execution.Limit = domain.DefaultHistoryLimit
	}
	if err := tpl.Validate(); err != nil {
		return domain.PromptTemplate{}, err
	}
	return tpl, nil
}
