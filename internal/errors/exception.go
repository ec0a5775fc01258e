package errors

import (
	"errors"
	"net/http"
)

// Exception is an application error that knows the HTTP status it should
// surface as.
type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

// StatusCode unwraps err looking for an Exception; anything else maps to a
// plain server error.
func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
