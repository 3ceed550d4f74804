package rerank

import "errors"

var (
	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrTemplatesRequired is returned when a prompt library is not provided.
	ErrTemplatesRequired = errors.New("prompt templates required")
)
