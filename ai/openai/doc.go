// Package openai implements the ai interfaces against OpenAI-compatible
// APIs via langchaingo. It works with hosted services and with local
// OpenAI-compatible servers (Ollama, vLLM, LocalAI).
package openai
