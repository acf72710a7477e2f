// Package llmfactory provides factories and configuration for LLM model instantiation, supporting multiple providers (OpenAI, Azure, Anthropic) and model selection strategies.
package llmfactory
