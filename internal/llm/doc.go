// Package llm provides chat completion clients for the answer pipeline.
//
// # Overview
//
// All pipeline stages (routing, department answering, merging) share a
// single Client. The client is deterministic by default: temperature 0,
// fixed model, fixed max tokens.
//
// Supported providers:
//   - groq: OpenAI-compatible chat completions API (default)
//   - openai: OpenAI chat completions API
//   - ollama: local Ollama generate API
//
// # Usage
//
//	client, err := llm.NewClient(llm.Config{
//	    Provider: "groq",
//	    APIKey:   os.Getenv("GROQ_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	answer, err := client.Complete(ctx, "What is the leave policy?")
//
// # Error Handling
//
// Transient failures (429, 5xx, network errors) are retried with
// exponential backoff. Other API errors fail fast. Requests are rate
// limited client-side to stay under provider quotas.
package llm
