package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"labcatalog/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeJSON sends v as the response body with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt integer query parameter key, def when absent or not a number.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}

// decodeBody reads a JSON body of at most maxBodyBytes into out. An empty
// body leaves out untouched. Malformed or oversized bodies are validation
// errors.
func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	if len(body) > maxBodyBytes {
		return domain.Validationf("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
