package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agentboard/api/internal/validation"
)

// readValidated reads the request body, checks it against the named schema and
// decodes it into v. Nothing is decoded when validation fails.
func readValidated(r *http.Request, validator *validation.Validator, schema string, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return validation.NewError("body", "failed to read request body")
	}
	if err := validator.ValidateJSON(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return validation.NewError("body", "%v", err)
	}
	return nil
}
