package kit

import (
	"encoding/json"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Message:   msg,
		Error:     http.StatusText(status),
		Details:   details,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

func WriteFailure(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := ErrorResponse{
		Message:   msg,
		RequestID: chimw.GetReqID(r.Context()),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	WriteJSON(w, status, resp)
}
