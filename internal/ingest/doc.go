// Package ingest builds the policy knowledge base from source documents.
//
// A Builder reads a source file (plain text, Markdown, or PDF), splits it
// into policy sections, tags every section with the department it belongs
// to, and writes the result to the knowledge store. Section IDs derive from
// a content hash, so re-running ingestion over the same corpus is
// idempotent.
//
// Splitting strategies:
//
//   - SectionSplitter (default) splits on numbered headings ("1. ", "2. "
//     at line starts), which is how the company policy handbook is laid
//     out.
//   - RecursiveSplitter chunks unstructured sources by size with overlap.
package ingest
