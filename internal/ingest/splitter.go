package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter splits a source document into sections suitable for indexing.
type Splitter interface {
	Split(text string) ([]string, error)
}

// defaultMinSectionLength filters out heading stubs and whitespace fragments.
const defaultMinSectionLength = 50

// sectionBoundary matches numbered-heading starts ("\n1. ", "\n12. ").
var sectionBoundary = regexp.MustCompile(`\n\d+\.\s`)

// SectionSplitter splits on numbered-heading boundaries. Sections shorter
// than the minimum length after trimming are dropped.
type SectionSplitter struct {
	minLength int
}

// NewSectionSplitter creates the numbered-heading splitter. A zero minLength
// selects the default (50).
func NewSectionSplitter(minLength int) *SectionSplitter {
	if minLength <= 0 {
		minLength = defaultMinSectionLength
	}
	return &SectionSplitter{minLength: minLength}
}

// Split implements Splitter.
func (s *SectionSplitter) Split(text string) ([]string, error) {
	parts := sectionBoundary.Split(text, -1)

	sections := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if len(trimmed) < s.minLength {
			continue
		}
		sections = append(sections, trimmed)
	}

	return sections, nil
}

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// RecursiveSplitter chunks text by size with overlap, for sources without
// numbered headings.
type RecursiveSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewRecursiveSplitter creates a size-based splitter. Zero values select
// the defaults (800/100).
func NewRecursiveSplitter(chunkSize, chunkOverlap int) (*RecursiveSplitter, error) {
	if chunkSize == 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap == 0 {
		chunkOverlap = defaultChunkOverlap
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}

	return &RecursiveSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// Split implements Splitter.
func (s *RecursiveSplitter) Split(text string) ([]string, error) {
	segments, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	sections := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		sections = append(sections, trimmed)
	}

	return sections, nil
}
