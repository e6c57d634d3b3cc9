package gemini

import (
	"errors"
	"fmt"
)

// ErrNoImage reports a multimodal response in which no content part
// carried inline image data.
var ErrNoImage = errors.New("gemini: response contains no image data")

// ServiceError is a transport or service-level failure: network fault,
// timeout, or a non-2xx response.
type ServiceError struct {
	Status string
	Body   string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("gemini request: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// SchemaParseError reports a response body that could not be parsed into
// the declared shape.
type SchemaParseError struct {
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("gemini: response does not match declared schema: %v", e.Err)
}

func (e *SchemaParseError) Unwrap() error {
	return e.Err
}
