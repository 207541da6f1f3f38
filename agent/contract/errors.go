package contract

import "errors"

var (
	ErrClassificationOutOfDomain = errors.New("classification returned a label outside the known set")
	ErrUnroutable                = errors.New("no route for label")
	ErrProviderFailure           = errors.New("llm provider call failed")
	ErrStateStore                = errors.New("state store failed")
	ErrPromptMissing             = errors.New("required prompt is missing")
	ErrValidation                = errors.New("validation failed")
)
