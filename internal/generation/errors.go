package generation

import "errors"

// Common errors returned by Generator implementations
var (
	// ErrGenerationEmpty is returned when the model produced no biography text
	ErrGenerationEmpty = errors.New("text generation returned no content")

	// ErrInvalidResponse is returned when the model response cannot be parsed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during text generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
