package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// GraphQLRequest is one operation as sent by a client.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError rejects a request before any operation runs.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// decodeRequest reads the operations of r. batch reports whether the body
// was a JSON array, in which case the response is one as well.
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (reqs []GraphQLRequest, batch bool, err *requestError) {
	if r.Method == http.MethodGet {
		req, err := decodeQueryString(r)
		if err != nil {
			return nil, false, err
		}
		return []GraphQLRequest{req}, false, nil
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, perr := mime.ParseMediaType(ct)
		if perr != nil {
			return nil, false, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
		}
		mediaType = mt
	}
	if mediaType != "application/json" && mediaType != "application/graphql" {
		return nil, false, &requestError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type"}
	}

	body, err := readBody(w, r, maxBody)
	if err != nil {
		return nil, false, err
	}
	if mediaType == "application/graphql" {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, false, badRequest("missing 'query'")
		}
		return []GraphQLRequest{{Query: string(body), Variables: map[string]any{}}}, false, nil
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if jerr := json.Unmarshal(trimmed, &reqs); jerr != nil {
			return nil, false, badRequest("invalid JSON")
		}
		if len(reqs) == 0 {
			return nil, false, badRequest("empty batch")
		}
		for i := range reqs {
			if err := checkRequest(&reqs[i]); err != nil {
				return nil, false, err
			}
		}
		return reqs, true, nil
	}

	var req GraphQLRequest
	if jerr := json.Unmarshal(body, &req); jerr != nil {
		return nil, false, badRequest("invalid JSON")
	}
	if err := checkRequest(&req); err != nil {
		return nil, false, err
	}
	return []GraphQLRequest{req}, false, nil
}

func decodeQueryString(r *http.Request) (GraphQLRequest, *requestError) {
	q := r.URL.Query()
	req := GraphQLRequest{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return GraphQLRequest{}, badRequest("invalid 'variables' JSON")
		}
	}
	if err := checkRequest(&req); err != nil {
		return GraphQLRequest{}, err
	}
	return req, nil
}

func checkRequest(req *GraphQLRequest) *requestError {
	if req.Query == "" {
		return badRequest("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request, maxBody int64) ([]byte, *requestError) {
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBody)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return nil, badRequest("failed to read body")
	}
	return body, nil
}
