package bacerrors

import (
	"errors"
	"fmt"
)

// BacalhauErrorInterface is implemented by the typed errors of this package.
type BacalhauErrorInterface interface {
	Error() string
	GetCode() string
	GetMessage() string
	GetDetails() map[string]interface{}
	GetError() error
}

// GenericError is the common shape of the typed errors.
type GenericError struct {
	Code    string                 `json:"Code"`
	Message string                 `json:"Message"`
	Details map[string]interface{} `json:"Details"`
	Err     error                  `json:"-"`
}

// ErrNotFound is matched by every error that reports a missing resource.
var ErrNotFound = errors.New("not found")

const (
	ErrorCodeUnknownServerError = "error-unknown-server-error"
	ErrorCodeJobNotFound        = "error-job-not-found"
	ErrorCodeRequestNotFound    = "error-request-not-found"
	ErrorCodeUnauthorized       = "error-unauthorized"

	ErrorMessageJobNotFound     = "Job not found. ID: %s"
	ErrorMessageRequestNotFound = "Moderation request not found. ID: %d"
)

type JobNotFound GenericError

func NewJobNotFound(id string) *JobNotFound {
	e := &JobNotFound{
		Code:    ErrorCodeJobNotFound,
		Message: fmt.Sprintf(ErrorMessageJobNotFound, id),
		Details: map[string]interface{}{"id": id},
	}
	e.Err = fmt.Errorf("%s", e.Message)
	return e
}

func (e *JobNotFound) Error() string                      { return e.Err.Error() }
func (e *JobNotFound) GetError() error                    { return e.Err }
func (e *JobNotFound) GetCode() string                    { return ErrorCodeJobNotFound }
func (e *JobNotFound) GetMessage() string                 { return e.Message }
func (e *JobNotFound) GetDetails() map[string]interface{} { return e.Details }
func (e *JobNotFound) Is(target error) bool               { return target == ErrNotFound }

func (e *JobNotFound) GetID() string {
	if id, ok := e.Details["id"].(string); ok {
		return id
	}
	return ""
}

type RequestNotFound GenericError

func NewRequestNotFound(id int64) *RequestNotFound {
	e := &RequestNotFound{
		Code:    ErrorCodeRequestNotFound,
		Message: fmt.Sprintf(ErrorMessageRequestNotFound, id),
		Details: map[string]interface{}{"id": id},
	}
	e.Err = fmt.Errorf("%s", e.Message)
	return e
}

func (e *RequestNotFound) Error() string                      { return e.Err.Error() }
func (e *RequestNotFound) GetError() error                    { return e.Err }
func (e *RequestNotFound) GetCode() string                    { return ErrorCodeRequestNotFound }
func (e *RequestNotFound) GetMessage() string                 { return e.Message }
func (e *RequestNotFound) GetDetails() map[string]interface{} { return e.Details }
func (e *RequestNotFound) Is(target error) bool               { return target == ErrNotFound }

var _ BacalhauErrorInterface = (*JobNotFound)(nil)
var _ BacalhauErrorInterface = (*RequestNotFound)(nil)
