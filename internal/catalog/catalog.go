package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	qdrantpb "github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"vacpac/internal/artifact"
	"vacpac/internal/console"
	"vacpac/internal/manifest"
	"vacpac/internal/qdrant"
)

const (
	DefaultBatchSize   = 16
	DefaultConcurrency = 4
	// DefaultRate paces embedding requests per second.
	DefaultRate = 8
	scrollPage  = 256
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the vector database holding published callables.
type Store interface {
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) (bool, error)
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []*qdrantpb.PointStruct) error
	DeleteByFilter(ctx context.Context, collection string, filter *qdrantpb.Filter) error
	Search(ctx context.Context, collection string, vector []float32, limit uint64) ([]*qdrantpb.ScoredPoint, error)
	Scroll(ctx context.Context, collection string, filter *qdrantpb.Filter, limit uint32, offset *qdrantpb.PointId) ([]*qdrantpb.RetrievedPoint, *qdrantpb.PointId, error)
}

// Catalog publishes manifest callables as searchable vectors.
type Catalog struct {
	store       Store
	embedder    Embedder
	log         *console.Logger
	collection  string
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithBatchSize sets how many callables share one embedding request.
func WithBatchSize(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithConcurrency bounds the embedding requests in flight.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit paces embedding requests.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Catalog) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// New creates a Catalog over collection.
func New(store Store, embedder Embedder, log *console.Logger, collection string, opts ...Option) *Catalog {
	c := &Catalog{
		store:       store,
		embedder:    embedder,
		log:         log,
		collection:  collection,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		limiter:     rate.NewLimiter(DefaultRate, DefaultConcurrency),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collection returns the collection name.
func (c *Catalog) Collection() string {
	return c.collection
}

// Hit is a callable found in the catalog.
type Hit struct {
	Score    float32                   `json:"score,omitempty"`
	Plugin   string                    `json:"plugin"`
	Version  string                    `json:"version"`
	Callable manifest.FunctionMetadata `json:"callable"`
}

// PointID derives the stable point id of a callable. occurrence counts
// earlier callables of the manifest with the same identifier, so repeated
// identifiers get distinct points.
func PointID(plugin, version, identifier string, occurrence int) (uint64, error) {
	seed := plugin + "@" + version + "#" + identifier
	if occurrence > 0 {
		seed += "#" + strconv.Itoa(occurrence)
	}
	return artifact.Digest([]byte(seed))
}

// EmbeddingText is the text embedded for fn.
func EmbeddingText(plugin string, fn manifest.FunctionMetadata) string {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name)
	}
	lines := []string{
		fmt.Sprintf("plugin: %s", plugin),
		fmt.Sprintf("callable: %s(%s)", fn.Identifier, strings.Join(params, ", ")),
	}
	var flags []string
	if fn.Async {
		flags = append(flags, "async")
	}
	if fn.Generator {
		flags = append(flags, "generator")
	}
	if len(flags) > 0 {
		lines = append(lines, fmt.Sprintf("flags: %s", strings.Join(flags, ", ")))
	}
	if fn.DocString != "" {
		lines = append(lines, "", fn.DocString)
	}
	return strings.Join(lines, "\n")
}

// Publish replaces the plugin's callables in the catalog with those of m and
// returns how many were stored.
func (c *Catalog) Publish(ctx context.Context, m *manifest.Manifest) (int, error) {
	if len(m.Functions) == 0 {
		c.log.Warn("%s exports no callables, removing it from %s", m.Name, c.collection)
		return 0, c.Unpublish(ctx, m.Name)
	}

	texts := make([]string, 0, len(m.Functions))
	for _, fn := range m.Functions {
		texts = append(texts, EmbeddingText(m.Name, fn))
	}
	vectors, err := c.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	size := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != size {
			return 0, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), size)
		}
	}
	recreated, err := c.store.EnsureCollection(ctx, c.collection, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare collection %s: %w", c.collection, err)
	}
	if recreated {
		c.log.Warn("Collection %s had a different dimension and was recreated", c.collection)
	}

	points := make([]*qdrantpb.PointStruct, 0, len(m.Functions))
	seen := make(map[string]int, len(m.Functions))
	for i, fn := range m.Functions {
		id, err := PointID(m.Name, m.Version, fn.Identifier, seen[fn.Identifier])
		if err != nil {
			return 0, err
		}
		seen[fn.Identifier]++
		points = append(points, &qdrantpb.PointStruct{
			Id: qdrant.PointID(id),
			Vectors: &qdrantpb.Vectors{
				VectorsOptions: &qdrantpb.Vectors_Vector{
					Vector: &qdrantpb.Vector{Data: vectors[i]},
				},
			},
			Payload: qdrant.MapToPayload(payload(m, fn)),
		})
	}

	if err := c.store.DeleteByFilter(ctx, c.collection, qdrant.KeywordFilter("plugin", m.Name)); err != nil {
		return 0, fmt.Errorf("failed to remove previous callables of %s: %w", m.Name, err)
	}
	if err := c.store.Upsert(ctx, c.collection, points); err != nil {
		return 0, fmt.Errorf("failed to upsert callables of %s: %w", m.Name, err)
	}
	return len(points), nil
}

// embed runs the batches concurrently and returns vectors in text order.
func (c *Catalog) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for start := 0; start < len(texts); start += c.batchSize {
		start := start
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			batch, err := c.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed callables %d-%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d callables", len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			c.log.Debug("embedded callables %d-%d", start, end-1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func payload(m *manifest.Manifest, fn manifest.FunctionMetadata) map[string]interface{} {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name)
	}
	return map[string]interface{}{
		"plugin":     m.Name,
		"version":    m.Version,
		"identifier": fn.Identifier,
		"params":     params,
		"docString":  fn.DocString,
		"async":      fn.Async,
		"generator":  fn.Generator,
	}
}

// Search returns the topK callables closest to query.
func (c *Catalog) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK <= 0 {
		topK = 5
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vectors, err := c.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	points, err := c.store.Search(ctx, c.collection, vectors[0], uint64(topK))
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		hit := hitFromPayload(qdrant.PayloadToMap(p.GetPayload()))
		hit.Score = p.GetScore()
		hits = append(hits, hit)
	}
	return hits, nil
}

// List returns every callable published for plugin.
func (c *Catalog) List(ctx context.Context, plugin string) ([]Hit, error) {
	filter := qdrant.KeywordFilter("plugin", plugin)
	var (
		hits   []Hit
		offset *qdrantpb.PointId
	)
	for {
		points, next, err := c.store.Scroll(ctx, c.collection, filter, scrollPage, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range points {
			hits = append(hits, hitFromPayload(qdrant.PayloadToMap(p.GetPayload())))
		}
		if next == nil || len(points) == 0 {
			return hits, nil
		}
		offset = next
	}
}

// Unpublish removes the plugin's callables.
func (c *Catalog) Unpublish(ctx context.Context, plugin string) error {
	return c.store.DeleteByFilter(ctx, c.collection, qdrant.KeywordFilter("plugin", plugin))
}

// Drop deletes the whole collection.
func (c *Catalog) Drop(ctx context.Context) error {
	return c.store.DeleteCollection(ctx, c.collection)
}

func hitFromPayload(m map[string]interface{}) Hit {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	flag := func(key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	params := []manifest.Param{}
	if items, ok := m["params"].([]interface{}); ok {
		for _, item := range items {
			if name, ok := item.(string); ok {
				params = append(params, manifest.Param{Name: name})
			}
		}
	}
	return Hit{
		Plugin:  str("plugin"),
		Version: str("version"),
		Callable: manifest.FunctionMetadata{
			Identifier: str("identifier"),
			Params:     params,
			DocString:  str("docString"),
			Async:      flag("async"),
			Generator:  flag("generator"),
		},
	}
}
