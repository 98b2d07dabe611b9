package eventmodels

import "encoding/json"

type WebError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *WebError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}

	return e.Message
}

func (e *WebError) Unwrap() error {
	return e.Cause
}

func (e *WebError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"status":  e.StatusCode,
		"message": e.Message,
		"error":   e.Error(),
	})
}

func NewWebError(statusCode int, message string, cause error) *WebError {
	return &WebError{
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
