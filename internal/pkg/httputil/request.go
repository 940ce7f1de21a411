package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into v and runs the struct validator.
// On failure it writes the 400 response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, validate *validator.Validate) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid json")
		return false
	}

	if err := validate.Struct(v); err != nil {
		ValidationError(w, err)
		return false
	}
	return true
}
