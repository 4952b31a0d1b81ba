package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// APIErrorDetail is a single machine-readable error. Code is a stable
// identifier (e.g. "invalid_tolerance", "duplicate_emp_code") the kiosk and
// dashboard frontends switch on; Detail is for humans.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse is the error envelope every endpoint returns on failure.
// Policy rejections from a scan are NOT errors and use the outcome body
// instead; this envelope covers transport, validation and storage failures.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes the error envelope with a single error entry.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}
