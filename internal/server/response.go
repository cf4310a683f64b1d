package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"slices"
	"strings"

	executor "github.com/hanpama/graphplug/internal/executor"
	language "github.com/hanpama/graphplug/internal/language"
	resolution "github.com/hanpama/graphplug/internal/resolution"
)

type location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type responseError struct {
	Message    string         `json:"message"`
	Locations  []location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// response is the body of one operation's result. Data is omitted when the
// operation never started, e.g. on a syntax error.
type response struct {
	Data   any             `json:"data,omitempty"`
	Errors []responseError `json:"errors,omitempty"`
}

func formatResult(res *executor.ExecutionResult) any {
	if len(res.Errors) == 0 {
		return map[string]any{"data": res.Data}
	}
	out := struct {
		Data   any             `json:"data"`
		Errors []responseError `json:"errors"`
	}{Data: res.Data, Errors: make([]responseError, len(res.Errors))}
	for i, e := range res.Errors {
		re := responseError{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			re.Path = append([]any(nil), e.Path...)
		}
		out.Errors[i] = re
	}
	return out
}

func syntaxErrorResult(err error) response {
	var ge *language.Error
	if !errors.As(err, &ge) {
		return response{Errors: []responseError{{Message: err.Error()}}}
	}
	re := responseError{Message: ge.Message, Extensions: ge.Extensions}
	for _, loc := range ge.Locations {
		re.Locations = append(re.Locations, location{Line: loc.Line, Column: loc.Column})
	}
	return response{Errors: []responseError{re}}
}

func writeError(w http.ResponseWriter, err *requestError, pretty bool) {
	writeJSON(w, err.status, response{Errors: []responseError{{Message: err.message}}}, pretty)
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCacheHeaders(w http.ResponseWriter, c resolution.Cacheability) {
	w.Header().Set("Cache-Control", c.CacheControl())
	if len(c.Tags) > 0 {
		w.Header().Set(HeaderCacheTags, strings.Join(c.Tags, " "))
	}
	if len(c.Contexts) > 0 {
		w.Header().Set(HeaderCacheContexts, strings.Join(c.Contexts, " "))
	}
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	switch {
	case slices.Contains(opts.AllowedOrigins, "*"):
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case slices.Contains(opts.AllowedOrigins, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	default:
		return
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
	w.Header().Set("Access-Control-Expose-Headers", strings.Join([]string{HeaderRequestID, HeaderCacheTags, HeaderCacheContexts}, ", "))
}

// acceptsHTML reports whether a browser asked for the page.
func acceptsHTML(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && (mt == "text/html" || mt == "*/*") {
			return true
		}
	}
	return false
}
