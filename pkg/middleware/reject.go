package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "campsite/pkg/errors"
)

type rejection struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// reject answers in the {"code","error"} shape handlers use for single failures, so a
// client sees one error format whether the request stopped here or in the engine.
func reject(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rejection{Code: code, Error: apperrors.English.Lookup(code)})
}
