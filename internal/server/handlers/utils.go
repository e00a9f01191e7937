// Package handlers implements the csmon admin API endpoints.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/csmon/internal/catalog"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/logfields"
)

const maxBodyBytes = 64 << 10

// writeJSON serializes v into a buffer first so a failed encode never sends a partial body.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty pretty prints when ?pretty=1 or ?pretty=true is set.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_, werr := w.Write(append(b, '\n'))
			return werr
		}
		slog.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
	}
	return writeJSON(w, status, v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid request body").Build()
	}
	return nil
}

func pathType(r *http.Request) (catalog.ResourceType, error) {
	return catalog.ParseResourceType(r.PathValue("type"))
}

func pathEntry(r *http.Request) (int, error) {
	raw := r.PathValue("entry")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ferrors.ValidationError("invalid entry id").WithContext("entry", raw).Build()
	}
	return n, nil
}

// parseAddress accepts decimal or 0x-prefixed hexadecimal.
func parseAddress(raw string) (uint64, error) {
	n, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, ferrors.ValidationError("invalid address").WithContext("address", raw).Build()
	}
	return n, nil
}
