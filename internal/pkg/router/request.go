package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

// maxBodyBytes bounds a JSON request body; dialog payloads are a few fields.
const maxBodyBytes = 64 * 1024

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

// GetParam reads a path parameter stored by httprouter.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetQuery returns the trimmed query parameter value.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// DecodeBody decodes exactly one JSON value into dst and rejects unknown
// fields, trailing data and oversized bodies.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat("Request body is required")
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return goerror.NewInvalidFormat()
	}
	if len(data) > maxBodyBytes {
		return goerror.NewInvalidFormat("Request body is too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return goerror.NewInvalidFormat("Request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}
	return nil
}
