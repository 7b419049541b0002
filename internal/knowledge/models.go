package knowledge

import "github.com/fyrsmithlabs/deskd/internal/department"

// metadataDepartmentKey is the metadata field holding the owning department.
const metadataDepartmentKey = "department"

// Entry is a policy section stored in the knowledge base.
type Entry struct {
	// ID is the unique identifier for the entry
	ID string

	// Text is the policy section content
	Text string

	// Department is the department that owns this entry
	Department department.Label
}

// SearchResult is a scored entry returned from similarity search.
type SearchResult struct {
	Entry

	// Score is the similarity score (higher = more similar)
	Score float32
}
