// Package llm wraps an OpenAI-compatible chat completion and embedding API
// with request retries, JSON response sanitization, and backoff that honors
// Retry-After headers.
package llm
