package bacerrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

const UnknownError = "error-unknown"

// ErrorResponse is the body the dashboard sends back with a non-2xx status.
type ErrorResponse struct {
	Code    string                 `json:"Code"`
	Message string                 `json:"Message"`
	Details map[string]interface{} `json:"Details"`
	Err     string                 `json:"Err"`

	// StatusCode is the HTTP status the response arrived with.
	StatusCode int `json:"-"`
}

func NewResponseUnknownError(err error) *ErrorResponse {
	return &ErrorResponse{
		Code:    ErrorCodeUnknownServerError,
		Message: err.Error(),
		Details: map[string]interface{}{},
		Err:     err.Error(),
	}
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match a 404 or a not-found code.
func (e *ErrorResponse) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.StatusCode == http.StatusNotFound ||
		e.Code == ErrorCodeJobNotFound ||
		e.Code == ErrorCodeRequestNotFound
}

// ErrorToErrorResponseObject converts any error into the response shape.
// Typed errors keep their code and details.
func ErrorToErrorResponseObject(err error) *ErrorResponse {
	if err == nil {
		return &ErrorResponse{}
	}

	var response *ErrorResponse
	if errors.As(err, &response) {
		return response
	}

	var bacErr BacalhauErrorInterface
	if errors.As(err, &bacErr) {
		return &ErrorResponse{
			Code:    bacErr.GetCode(),
			Message: bacErr.GetMessage(),
			Details: bacErr.GetDetails(),
			Err:     bacErr.GetError().Error(),
		}
	}
	return NewResponseUnknownError(err)
}

func ErrorToErrorResponse(err error) string {
	return ConvertErrorToText(ErrorToErrorResponseObject(err))
}

func ConvertErrorToText(err *ErrorResponse) string {
	str, marshalError := json.Marshal(err)
	if marshalError != nil {
		msg := "error converting ErrorResponse to JSON"
		log.Error().Err(marshalError).Msg(msg)
		str = append(str, []byte("\n"+msg)...)
	}
	return string(str)
}
