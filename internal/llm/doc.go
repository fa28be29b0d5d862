// Package llm provides the language model collaborators of the query
// assistant: a router that maps questions onto the fixed template catalogue
// and a generator that writes SQL for everything else. It supports OpenAI and
// Anthropic chat APIs with retry, rate limiting and response caching.
package llm
