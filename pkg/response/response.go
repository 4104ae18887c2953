package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// failure always carries the error key; it is null when detail is withheld.
type failure struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

func write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// JSON sends body with the given status untouched.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	write(w, status, body)
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Success: true, Data: data})
}

// Status sends a successful envelope with a non-200 status, e.g. 503 from a
// readiness probe that still wants to describe itself.
func Status(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, envelope{Success: status < http.StatusBadRequest, Data: data})
}

// Error sends a JSON failure with no detail.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, failure{Message: message})
}

// Failure sends a JSON failure. detail is the underlying error text and is
// replaced by null when hide is true.
func Failure(w http.ResponseWriter, status int, message string, detail error, hide bool) {
	body := failure{Message: message}
	if detail != nil && !hide {
		msg := detail.Error()
		body.Error = &msg
	}
	write(w, status, body)
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// TooManyRequests sends a 429.
func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, "Too Many Requests")
}
