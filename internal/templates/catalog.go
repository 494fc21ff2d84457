package templates

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// DefaultCacheSize is the default number of cached query results.
const DefaultCacheSize = 128

// Option configures a Catalog.
type Option func(*Catalog)

// WithDirs sets the directories scanned on load. Later directories override
// templates with the same id from earlier ones.
func WithDirs(dirs ...string) Option {
	return func(c *Catalog) {
		c.dirs = append([]string(nil), dirs...)
	}
}

// WithBuiltin controls whether the bundled templates are loaded first.
func WithBuiltin(include bool) Option {
	return func(c *Catalog) {
		c.includeBuiltin = include
	}
}

// WithLogger sets the catalog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithCacheSize sets the query cache size. Zero or less disables caching.
func WithCacheSize(size int) Option {
	return func(c *Catalog) {
		c.cacheSize = size
	}
}

// Catalog indexes templates by id. Reads are lock-free against an immutable
// index that a load replaces wholesale.
type Catalog struct {
	dirs           []string
	includeBuiltin bool
	cacheSize      int
	logger         zerolog.Logger

	cache *lru.Cache[string, models.TemplateList]

	loadMu     sync.Mutex
	loaded     atomic.Bool
	generation atomic.Uint64
	index      atomic.Pointer[catalogIndex]
}

type catalogIndex struct {
	templates  map[string]*models.Template
	ids        []string
	tags       []string
	skipped    []*LoadError
	generation uint64
	loadedAt   time.Time
}

// Stats describes the currently loaded index.
type Stats struct {
	Templates  int       `json:"templates"`
	Tags       int       `json:"tags"`
	Skipped    int       `json:"skipped"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
	Dirs       []string  `json:"dirs"`
}

// New creates an empty catalog. Nothing is read until Load or EnsureLoaded.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		includeBuiltin: true,
		cacheSize:      DefaultCacheSize,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize > 0 {
		cache, err := lru.New[string, models.TemplateList](c.cacheSize)
		if err != nil {
			c.logger.Warn().Err(err).Int("size", c.cacheSize).Msg("query cache disabled")
		} else {
			c.cache = cache
		}
	}
	return c
}

// Dirs returns the configured template directories.
func (c *Catalog) Dirs() []string {
	return append([]string(nil), c.dirs...)
}

// Load reads every configured source and swaps in a fresh index. Files that
// fail to parse or validate are logged and skipped. Load may be called again
// to refresh the catalog.
func (c *Catalog) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.loadLocked(ctx)
}

// EnsureLoaded loads the catalog once. Concurrent callers block until the
// first load finishes.
func (c *Catalog) EnsureLoaded(ctx context.Context) error {
	if c.loaded.Load() {
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loaded.Load() {
		return nil
	}
	return c.loadLocked(ctx)
}

func (c *Catalog) loadLocked(ctx context.Context) error {
	started := time.Now()
	byID := make(map[string]*models.Template)
	var skipped []*LoadError

	add := func(tmpl *models.Template) {
		if prev, exists := byID[tmpl.TemplateID]; exists {
			c.logger.Warn().
				Str("template_id", tmpl.TemplateID).
				Str("previous_source", prev.Source).
				Str("source", tmpl.Source).
				Msg("template overridden")
		}
		byID[tmpl.TemplateID] = tmpl
	}

	if c.includeBuiltin {
		builtins, err := LoadBuiltinTemplates()
		if err != nil {
			return fmt.Errorf("load builtin templates: %w", err)
		}
		for _, tmpl := range builtins {
			add(tmpl)
		}
	}

	for _, dir := range c.dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		loaded, failures := LoadTemplatesFromDir(dir)
		for _, failure := range failures {
			c.logger.Warn().Err(failure.Err).Str("path", failure.Path).Msg("skipping template file")
		}
		skipped = append(skipped, failures...)
		for _, tmpl := range loaded {
			add(tmpl)
		}
	}

	idx := buildIndex(byID)
	idx.skipped = skipped
	idx.generation = c.generation.Add(1)
	idx.loadedAt = time.Now()

	c.index.Store(idx)
	c.loaded.Store(true)
	if c.cache != nil {
		c.cache.Purge()
	}

	c.logger.Info().
		Int("templates", len(idx.ids)).
		Int("tags", len(idx.tags)).
		Int("skipped", len(skipped)).
		Uint64("generation", idx.generation).
		Dur("duration", time.Since(started)).
		Msg("template catalog loaded")
	return nil
}

func buildIndex(byID map[string]*models.Template) *catalogIndex {
	idx := &catalogIndex{
		templates: byID,
		ids:       make([]string, 0, len(byID)),
	}

	tagSet := make(map[string]struct{})
	for id, tmpl := range byID {
		idx.ids = append(idx.ids, id)
		for _, tag := range tmpl.Tags {
			tagSet[tag] = struct{}{}
		}
	}
	sort.Strings(idx.ids)

	idx.tags = make([]string, 0, len(tagSet))
	for tag := range tagSet {
		idx.tags = append(idx.tags, tag)
	}
	sort.Strings(idx.tags)
	return idx
}

func (c *Catalog) current(ctx context.Context) *catalogIndex {
	if err := c.EnsureLoaded(ctx); err != nil {
		c.logger.Error().Err(err).Msg("template catalog load failed")
	}
	return c.index.Load()
}

// Get returns the template with the exact id. The returned template is
// shared and must not be modified.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Template, bool) {
	idx := c.current(ctx)
	if idx == nil {
		return nil, false
	}
	tmpl, ok := idx.templates[id]
	return tmpl, ok
}

// List returns every template without its pattern, sorted by id.
func (c *Catalog) List(ctx context.Context) []models.TemplateSummary {
	idx := c.current(ctx)
	if idx == nil {
		return []models.TemplateSummary{}
	}

	summaries := make([]models.TemplateSummary, 0, len(idx.ids))
	for _, id := range idx.ids {
		summaries = append(summaries, idx.templates[id].Summary())
	}
	return summaries
}

// Query filters the catalog by tag and free-text search. Both filters must
// match. The returned tag set always covers the whole catalog. The result
// is owned by the caller; cached entries are never handed out directly.
func (c *Catalog) Query(ctx context.Context, q models.TemplateQuery) models.TemplateList {
	idx := c.current(ctx)
	if idx == nil {
		return models.TemplateList{Templates: []models.TemplateSummary{}, Tags: []string{}}
	}

	key := queryKey(idx.generation, q)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.Clone()
		}
	}

	result := models.TemplateList{
		Templates: make([]models.TemplateSummary, 0),
		Tags:      append([]string(nil), idx.tags...),
	}
	for _, id := range idx.ids {
		tmpl := idx.templates[id]
		if matchesQuery(tmpl, q) {
			result.Templates = append(result.Templates, tmpl.Summary())
		}
	}
	result.Count = len(result.Templates)

	if c.cache != nil {
		c.cache.Add(key, result.Clone())
	}
	return result
}

// Skipped returns the files that failed during the last load.
func (c *Catalog) Skipped() []*LoadError {
	idx := c.index.Load()
	if idx == nil {
		return nil
	}
	return append([]*LoadError(nil), idx.skipped...)
}

// Stats reports the size and generation of the loaded index.
func (c *Catalog) Stats() Stats {
	stats := Stats{Dirs: c.Dirs()}
	idx := c.index.Load()
	if idx == nil {
		return stats
	}
	stats.Templates = len(idx.ids)
	stats.Tags = len(idx.tags)
	stats.Skipped = len(idx.skipped)
	stats.Generation = idx.generation
	stats.LoadedAt = idx.loadedAt
	return stats
}
