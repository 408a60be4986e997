package cloudformation

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrStackNotFound is returned when the named stack does not exist.
var ErrStackNotFound = errors.New("stack not found")

const (
	codeValidationError = "ValidationError"
	msgDoesNotExist     = "does not exist"
	msgNoUpdates        = "No updates are to be performed."
)

// IsStackNotFound reports whether err says the stack does not exist.
// CloudFormation reports this as a ValidationError, not a dedicated code.
func IsStackNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStackNotFound) {
		return true
	}
	return isValidationError(err, msgDoesNotExist)
}

// IsNoUpdates reports whether an UpdateStack error means the template and
// parameters are unchanged.
func IsNoUpdates(err error) bool {
	return isValidationError(err, msgNoUpdates)
}

func isValidationError(err error, fragment string) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == codeValidationError &&
			strings.Contains(apiErr.ErrorMessage(), fragment)
	}
	return false
}
