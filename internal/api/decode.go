package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/arunsharma1203/grievance/internal/api/respond"
)

// decodeJSON reads a size-capped JSON object into dst. It writes the error
// response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, max int64, dst any) bool {
	if max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respond.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			respond.WriteBadRequest(w, "request body is required")
		default:
			respond.WriteBadRequest(w, "invalid JSON body")
		}
		return false
	}
	return true
}
