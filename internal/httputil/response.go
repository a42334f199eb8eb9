package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/redmonkez12/accounts-api/internal/logging"
)

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err.Error())
	}
}

// RespondCode sends a machine-readable error code as a plain-text body.
func RespondCode(w http.ResponseWriter, code string, statusCode int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(code))
}

// RespondStatus sends a status code with an empty body.
func RespondStatus(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}
