package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"saponaria/internal/units"
)

const maxJSONBody = 1 << 20

// fields holds request values as the raw strings the user typed. JSON
// bodies and form submissions are accepted alike.
type fields map[string]string

func readFields(r *http.Request) (fields, error) {
	if isJSONRequest(r) {
		var payload map[string]any
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			if errors.Is(err, io.EOF) {
				return fields{}, nil
			}
			return nil, err
		}
		out := make(fields, len(payload))
		for key, value := range payload {
			switch v := value.(type) {
			case nil:
				out[key] = ""
			case string:
				out[key] = v
			case json.Number:
				out[key] = v.String()
			case bool:
				out[key] = fmt.Sprintf("%t", v)
			default:
				return nil, fmt.Errorf("field %q must be a scalar", key)
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(fields, len(r.Form))
	for key, values := range r.Form {
		if len(values) > 0 {
			out[key] = values[len(values)-1]
		}
	}
	// Body values win over the query string; the last one wins so a
	// checkbox can follow a hidden default.
	for key, values := range r.PostForm {
		if len(values) > 0 {
			out[key] = values[len(values)-1]
		}
	}
	return out, nil
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" || r.Header.Get("HX-Boosted") == "true"
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

func (f fields) get(key string) string {
	return f[key]
}

func (f fields) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f fields) trimmed(key string) string {
	return strings.TrimSpace(f[key])
}

func (f fields) number(key string) float64 {
	return units.ParseNumber(f[key])
}

func (f fields) flag(key string) bool {
	switch strings.ToLower(strings.TrimSpace(f[key])) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// id parses a row id. Anything but a plain decimal that fits a uint32
// yields 0, which no stored row uses.
func (f fields) id(key string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(f[key]), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
