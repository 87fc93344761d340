// Package errors defines AppError, the structured error shared by ranchkit
// packages. Codes are machine readable and carry retryable semantics; the
// fetch and live packages report cancellation, exhaustion and decoding
// failures through it.
//
// Import it under an alias to avoid shadowing the standard library:
//
//	import apperrors "github.com/kbukum/ranchkit/errors"
package errors
