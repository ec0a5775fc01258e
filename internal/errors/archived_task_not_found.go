package errors

import "net/http"

var ErrArchivedTaskNotFound = &Exception{
	Message:    "task not found in archive",
	StatusCode: http.StatusNotFound,
}
