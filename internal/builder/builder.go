// Package builder runs the full embedding build: ingest, pipeline, export,
// persistence, and catalog refresh.
package builder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weftlab/weft/internal/catalog"
	"github.com/weftlab/weft/internal/config"
	"github.com/weftlab/weft/internal/export"
	"github.com/weftlab/weft/internal/frame"
	"github.com/weftlab/weft/internal/ingest"
	"github.com/weftlab/weft/internal/models"
	"github.com/weftlab/weft/internal/neighbors"
	"github.com/weftlab/weft/internal/pipeline"
	"github.com/weftlab/weft/internal/stage"
	"github.com/weftlab/weft/internal/store"
)

// Builder wires the ingestion collaborator, the pipeline stages, and the
// persistence sinks. One Builder serves many Build calls; each call
// constructs a fresh executor, so builds are independent runs.
type Builder struct {
	cfg     *config.Config
	store   store.Store
	catalog *catalog.Catalog // optional
	logger  *zap.Logger      // optional; when set, logs stage progress
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets a logger for build progress output.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithCatalog sets a catalog to refresh from the items metadata file.
func WithCatalog(c *catalog.Catalog) Option {
	return func(b *Builder) { b.catalog = c }
}

// New creates a builder. store may be nil for export-only builds.
func New(cfg *config.Config, st store.Store, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, store: st}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result is the outcome of one build.
type Result struct {
	Run       *models.Run
	Table     *frame.Frame
	Neighbors *neighbors.Index
}

// Build runs the whole pipeline once: reads the configured inputs, drives
// the five stages in order, writes the output table, swaps the stored
// embeddings, refreshes the catalog, and returns the run with a ready
// neighbor index. A stage failure yields no partial artifact.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	cols := stage.Columns{
		Link:   b.cfg.Inputs.LinkColumn,
		Item:   b.cfg.Inputs.ItemColumn,
		Weight: b.cfg.Inputs.WeightColumn,
	}

	reader, err := ingest.NewReader(cols)
	if err != nil {
		return nil, err
	}
	input, err := reader.Read(b.cfg.Inputs.Paths...)
	if err != nil {
		return nil, err
	}
	rowsIn := input.NumRows()
	links, items, pairs := cardinalities(input, cols)
	if b.logger != nil {
		b.logger.Info("input loaded",
			zap.Int("rows", rowsIn),
			zap.Int("links", links),
			zap.Int("items", items),
		)
	}

	exec, err := b.newExecutor(cols)
	if err != nil {
		return nil, err
	}
	artifact, err := exec.Run(ctx, pipeline.Rows{Frame: input})
	if err != nil {
		return nil, err
	}
	table := artifact.(pipeline.LabeledTable)

	run := &models.Run{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		K:              b.cfg.Pipeline.K,
		Normalization:  b.cfg.Pipeline.Normalization,
		Inputs:         b.cfg.Inputs.Paths,
		Links:          links,
		Items:          items,
		RowsIn:         rowsIn,
		RowsDeduped:    pairs,
		SingularValues: table.SingularValues,
		ElapsedMS:      time.Since(start).Milliseconds(),
	}

	if b.cfg.Output.Path != "" {
		if err := export.WriteFile(b.cfg.Output.Path, export.Format(b.cfg.Output.Format), table.Frame); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	embeddings, err := tableEmbeddings(table.Frame, run.ID)
	if err != nil {
		return nil, err
	}
	if b.store != nil {
		if err := b.store.ReplaceEmbeddings(ctx, run.ID, embeddings); err != nil {
			return nil, fmt.Errorf("store embeddings: %w", err)
		}
		if err := b.store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("store run: %w", err)
		}
	}

	if b.catalog != nil && b.cfg.Inputs.ItemsPath != "" {
		if err := b.refreshCatalog(ctx); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	idx, err := neighbors.FromEmbeddings(embeddings)
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Info("build completed",
			zap.String("run_id", run.ID),
			zap.Int("items", run.Items),
			zap.Int("k", run.K),
			zap.Int64("elapsed_ms", run.ElapsedMS),
		)
	}
	return &Result{Run: run, Table: table.Frame, Neighbors: idx}, nil
}

// newExecutor constructs the five-stage chain for one run.
func (b *Builder) newExecutor(cols stage.Columns) (*pipeline.Executor, error) {
	dedup, err := stage.NewDedup(cols)
	if err != nil {
		return nil, err
	}
	sparse, err := stage.NewSparseBuilder(cols)
	if err != nil {
		return nil, err
	}
	sim, err := stage.NewSimilarity(stage.SimilarityConfig{
		Normalization: stage.Normalization(b.cfg.Pipeline.Normalization),
		ZeroDiagonal:  b.cfg.Pipeline.ZeroDiagonal,
	})
	if err != nil {
		return nil, err
	}
	svd, err := stage.NewSVDReduce(stage.SVDConfig{
		K:           b.cfg.Pipeline.K,
		Tol:         b.cfg.Pipeline.Tol,
		Oversamples: b.cfg.Pipeline.Oversamples,
	})
	if err != nil {
		return nil, err
	}
	reattach, err := stage.NewReattach(stage.ReattachConfig{IDColumn: b.cfg.Inputs.ItemColumn})
	if err != nil {
		return nil, err
	}
	var opts []pipeline.Option
	if b.logger != nil {
		opts = append(opts, pipeline.WithLogger(b.logger))
	}
	return pipeline.NewExecutor([]pipeline.Transform{dedup, sparse, sim, svd, reattach}, opts...)
}

// cardinalities counts distinct links, items, and (link, item) pairs in the
// raw input for run metadata. The pipeline recomputes its own maps; this is
// bookkeeping only.
func cardinalities(f *frame.Frame, cols stage.Columns) (links, items, pairs int) {
	lc, ok := f.Column(cols.Link)
	if !ok {
		return 0, 0, 0
	}
	ic, ok := f.Column(cols.Item)
	if !ok {
		return 0, 0, 0
	}
	linkSet := make(map[string]struct{})
	itemSet := make(map[string]struct{})
	pairSet := make(map[[2]string]struct{})
	for i := 0; i < f.NumRows(); i++ {
		l, it := lc.StringAt(i), ic.StringAt(i)
		linkSet[l] = struct{}{}
		itemSet[it] = struct{}{}
		pairSet[[2]string{l, it}] = struct{}{}
	}
	return len(linkSet), len(itemSet), len(pairSet)
}

// tableEmbeddings converts the labeled table to per-item embedding records.
func tableEmbeddings(f *frame.Frame, runID string) ([]*models.Embedding, error) {
	names := f.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("labeled table has no embedding columns")
	}
	ids, _ := f.Column(names[0])
	dims := make([]*frame.Column, len(names)-1)
	for j, name := range names[1:] {
		c, _ := f.Column(name)
		dims[j] = c
	}
	out := make([]*models.Embedding, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		vec := make([]float64, len(dims))
		for j, c := range dims {
			vec[j] = c.FloatAt(i)
		}
		out[i] = &models.Embedding{ItemID: ids.StringAt(i), RunID: runID, Vector: vec}
	}
	return out, nil
}

// refreshCatalog reindexes item metadata from the items file, a CSV with
// item_id and title columns.
func (b *Builder) refreshCatalog(ctx context.Context) error {
	items, err := loadItems(b.cfg.Inputs.ItemsPath, b.cfg.Inputs.ItemColumn)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return b.catalog.IndexItems(ctx, items)
}

// loadItems reads the item metadata CSV. The identifier column matches the
// configured item column name; the title column is named "title".
func loadItems(path, idColumn string) ([]catalog.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open items file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read items header: %w", err)
	}
	idPos, titlePos := -1, -1
	for i, name := range header {
		switch name {
		case idColumn:
			idPos = i
		case "title":
			titlePos = i
		}
	}
	if idPos < 0 || titlePos < 0 {
		return nil, fmt.Errorf("items file needs %q and \"title\" columns, has %v", idColumn, header)
	}

	var items []catalog.Item
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read items row: %w", err)
		}
		items = append(items, catalog.Item{ID: rec[idPos], Title: rec[titlePos]})
	}
	return items, nil
}
