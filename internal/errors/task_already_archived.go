package errors

import "net/http"

var ErrTaskAlreadyArchived = &Exception{
	Message:    "task is already archived",
	StatusCode: http.StatusConflict,
}
