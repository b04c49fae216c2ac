package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates no API key in OPENAI_API_KEY or llm.api_key.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrNoContent indicates recycle was given nothing to read.
	ErrNoContent = errors.New("no content to recycle")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrNothingProduced indicates every requested platform failed.
	ErrNothingProduced = errors.New("no platform produced content")
)
