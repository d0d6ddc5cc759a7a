package httpx

import "net/http"

const (
	StatusOK                 = http.StatusOK
	StatusCreated            = http.StatusCreated
	StatusBadRequest         = http.StatusBadRequest
	StatusUnauthorized       = http.StatusUnauthorized
	StatusNotFound           = http.StatusNotFound
	StatusConflict           = http.StatusConflict
	StatusInternalError      = http.StatusInternalServerError
	StatusServiceUnavailable = http.StatusServiceUnavailable
)

// InternalErrorMessage is the only text clients see for unexpected failures.
const InternalErrorMessage = "Internal server error"
