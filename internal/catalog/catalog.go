package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/domain"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// Key is the cache key the catalog is stored under.
const Key = "categories"

//go:embed categories.yaml
var seedYAML []byte

// Seed returns the built-in categories.
func Seed() ([]domain.Category, error) {
	var categories []domain.Category
	if err := yaml.Unmarshal(seedYAML, &categories); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	return categories, nil
}

// Catalog manages the admin-maintained list of ticket categories.
type Catalog struct {
	cache cache.Cache
	mu    sync.Mutex
}

// New returns a catalog persisted in c.
func New(c cache.Cache) *Catalog {
	return &Catalog{cache: c}
}

// List returns the categories, seeding the cache the first time.
func (c *Catalog) List(ctx context.Context) ([]domain.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

// Add creates a category. solutionsText holds one canned solution per line;
// blank lines are dropped.
func (c *Catalog) Add(ctx context.Context, name, solutionsText string) (domain.Category, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Category{}, apperrors.NewValidationError("category name cannot be empty", nil)
	}

	solutions := []string{}
	for _, line := range strings.Split(solutionsText, "\n") {
		if strings.TrimSpace(line) != "" {
			solutions = append(solutions, line)
		}
	}
	category := domain.Category{
		ID:        "cat-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Name:      name,
		Solutions: solutions,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	categories, err := c.loadLocked(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	categories = append(categories, category)
	if err := c.cache.Set(ctx, Key, categories); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// Delete removes the category with id.
func (c *Catalog) Delete(ctx context.Context, id string) (domain.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	categories, err := c.loadLocked(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for i, category := range categories {
		if category.ID != id {
			continue
		}
		remaining := append(append([]domain.Category{}, categories[:i]...), categories[i+1:]...)
		if err := c.cache.Set(ctx, Key, remaining); err != nil {
			return domain.Category{}, err
		}
		return category, nil
	}
	return domain.Category{}, apperrors.NewNotFound("category", map[string]any{"id": id})
}

func (c *Catalog) loadLocked(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	found, err := c.cache.Get(ctx, Key, &categories)
	if err != nil {
		return nil, err
	}
	if found {
		return categories, nil
	}
	categories, err = Seed()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, Key, categories); err != nil {
		return nil, err
	}
	return categories, nil
}
