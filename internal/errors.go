package internal

import "errors"

var (
	// ErrUnsupportedLanguage marks a tag outside the routing vocabulary.
	// The pipeline treats it as pass-through, it is only used for logging.
	ErrUnsupportedLanguage = errors.New("unsupported language tag")

	// ErrSegmentation is returned when the mask/split invariants cannot hold.
	ErrSegmentation = errors.New("segmentation failed")

	// ErrTranslationUnavailable covers model failures and timeouts.
	ErrTranslationUnavailable = errors.New("translation unavailable")

	// ErrPersistence covers cache and debug sink write failures.
	ErrPersistence = errors.New("persistence failed")
)
