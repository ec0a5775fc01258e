package errors

import "net/http"

var ErrTaskAlreadyCompleted = &Exception{
	Message:    "task is already completed",
	StatusCode: http.StatusConflict,
}
