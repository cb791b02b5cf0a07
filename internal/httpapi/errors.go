package httpapi

import (
	"encoding/json"
	"net/http"

	"vlmd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeInferError writes the /infer failure envelope. The game-engine client
// parses every /infer reply as an InferResponse, so validation and internal
// failures use the same shape as handled generation failures.
func writeInferError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.InferResponse{
		Success:       false,
		Result:        nil,
		InferenceTime: 0,
		Error:         &msg,
	})
}
