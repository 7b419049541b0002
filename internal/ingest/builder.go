package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
)

var tracer = otel.Tracer("deskd.ingest")

// Report summarizes one ingestion run.
type Report struct {
	// Source is the ingested file path.
	Source string
	// Sections is the number of sections written to the store.
	Sections int
	// PerDepartment counts sections by assigned department.
	PerDepartment map[department.Label]int
}

// Builder reads, splits, tags, and indexes policy documents.
type Builder struct {
	store    knowledge.Store
	splitter Splitter
	logger   *zap.Logger
}

// NewBuilder creates a Builder. A nil splitter selects the section splitter.
func NewBuilder(store knowledge.Store, splitter Splitter, logger *zap.Logger) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if splitter == nil {
		splitter = NewSectionSplitter(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		store:    store,
		splitter: splitter,
		logger:   logger,
	}, nil
}

// Build ingests one source document into the knowledge store.
//
// Section IDs are content hashes, so ingesting the same document twice
// overwrites rather than duplicates.
func (b *Builder) Build(ctx context.Context, path string) (*Report, error) {
	ctx, span := tracer.Start(ctx, "ingest.Build",
		trace.WithAttributes(attribute.String("ingest.source", path)))
	defer span.End()

	text, err := ReadSource(path)
	if err != nil {
		return nil, err
	}

	sections, err := b.splitter.Split(text)
	if err != nil {
		return nil, fmt.Errorf("splitting source %q: %w", path, err)
	}

	report := &Report{
		Source:        path,
		PerDepartment: make(map[department.Label]int),
	}

	if len(sections) == 0 {
		b.logger.Warn("source produced no sections", zap.String("source", path))
		span.SetAttributes(attribute.Int("ingest.sections", 0))
		return report, nil
	}

	entries := make([]knowledge.Entry, len(sections))
	for i, section := range sections {
		dept := TagDepartment(section)
		entries[i] = knowledge.Entry{
			ID:         sectionID(section),
			Text:       section,
			Department: dept,
		}
		report.PerDepartment[dept]++
	}

	ids, err := b.store.AddEntries(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("indexing %d sections from %q: %w", len(entries), path, err)
	}

	report.Sections = len(ids)
	span.SetAttributes(attribute.Int("ingest.sections", report.Sections))

	b.logger.Info("ingested source",
		zap.String("source", path),
		zap.Int("sections", report.Sections),
		zap.Any("per_department", departmentCounts(report.PerDepartment)),
	)

	return report, nil
}

// sectionID derives a stable ID from the section content.
func sectionID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}

func departmentCounts(counts map[department.Label]int) map[string]int {
	out := make(map[string]int, len(counts))
	for dept, n := range counts {
		out[dept.Key()] = n
	}
	return out
}
