// Package pipeline answers help-desk queries in four stages: route the
// query to the departments it concerns, retrieve department-scoped policy
// context, generate one grounded answer per department, and merge the
// answers into a single reply.
//
// The stages share one language model client and one knowledge store, both
// safe for concurrent use. A request owns no other state; two identical
// queries run the full pipeline twice.
//
// Routing is fail-soft: a reply the router cannot parse sends the query to
// every department instead of failing the request. Everything after routing
// is fail-hard: a store or model failure in any department aborts the whole
// request, and nothing is retried at this layer.
package pipeline
