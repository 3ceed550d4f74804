package extract

import "errors"

var (
	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrTemplatesRequired is returned when a prompt library is not provided.
	ErrTemplatesRequired = errors.New("prompt templates required")

	// ErrStylesRequired is returned when the styles table is not provided.
	ErrStylesRequired = errors.New("styles table required")

	// ErrImagesRequired is returned when the images table is not provided.
	ErrImagesRequired = errors.New("images table required")
)
