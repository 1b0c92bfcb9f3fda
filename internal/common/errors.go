// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values; the HTTP layer
// owns their translation to status codes.
package common

import "errors"

var (
	// repository-level errors
	ErrorNotFound = errors.New("not found")

	// auth errors
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidToken = errors.New("invalid token")
	ErrorForbidden    = errors.New("access denied")

	// request/state validation errors
	ErrorValidation    = errors.New("validation error")
	ErrorInvalidStatus = errors.New("invalid recording status")
	ErrorNotActive     = errors.New("recording is not active")
	ErrorChunkTooLarge = errors.New("chunk exceeds size limit")

	// pipeline errors
	ErrorNoAudio             = errors.New("assembly produced no audio")
	ErrorNothingToTranscribe = errors.New("nothing to transcribe")

	// generic internal failure surfaced to clients without detail
	ErrorInternal = errors.New("internal error")
)
