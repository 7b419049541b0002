// Package embeddings provides embedding generation via multiple providers.
//
// Supports FastEmbed (local ONNX, default), TEI (external service), and
// Ollama providers. Factory pattern enables provider selection at runtime
// with automatic dimension detection for common models.
//
// The ingest pipeline embeds policy sections through EmbedDocuments; the
// query pipeline embeds user questions through EmbedQuery. Both paths share
// one provider instance.
package embeddings
