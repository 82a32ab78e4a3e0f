// Package forms holds the registry of questionnaire configs known to the
// service. Configs are immutable once registered; re-registering an id is an
// error rather than a silent swap.
package forms

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/pkg/logging"
)

var (
	// ErrNotFound is returned when a form id is not registered
	ErrNotFound = errors.New("forms: form not found")

	// ErrAlreadyRegistered is returned when a form id is registered twice
	ErrAlreadyRegistered = errors.New("forms: form already registered")
)

// Summary is the list representation of a registered config.
type Summary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Sections     int     `json:"sections"`
	Questions    int     `json:"questions"`
	MaxRiskScore float64 `json:"maxRiskScore"`
}

// Registry is a concurrency-safe set of form configs.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*schema.FormConfig
	logger  *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		configs: make(map[string]*schema.FormConfig),
		logger:  logger,
	}
}

// Register adds a validated config.
func (r *Registry) Register(cfg *schema.FormConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, cfg.ID)
	}
	r.configs[cfg.ID] = cfg
	return nil
}

// Get returns the config registered under id.
func (r *Registry) Get(id string) (*schema.FormConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cfg, nil
}

// List returns summaries of all registered configs, sorted by id.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, summarize(cfg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func summarize(cfg *schema.FormConfig) Summary {
	questions := 0
	for _, s := range cfg.Sections {
		questions += len(s.Questions)
	}
	return Summary{
		ID:           cfg.ID,
		Title:        cfg.Title,
		Sections:     len(cfg.Sections),
		Questions:    questions,
		MaxRiskScore: cfg.EffectiveMaxRiskScore(),
	}
}

// LoadDir registers every *.json config in dir. Returns the number of configs
// loaded. Unparseable files fail the whole load: a broken config at boot is a
// deployment error, not something to skip past.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("forms: failed to read config dir %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("forms: failed to read %s: %w", path, err)
		}
		cfg, err := schema.ParseConfig(data)
		if err != nil {
			return loaded, fmt.Errorf("forms: invalid config %s: %w", path, err)
		}
		if err := r.Register(cfg); err != nil {
			return loaded, err
		}
		r.logger.Info("registered form config", "form_id", cfg.ID, "file", entry.Name())
		loaded++
	}
	return loaded, nil
}
