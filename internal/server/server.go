package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/graphplug/internal/eventbus"
	events "github.com/hanpama/graphplug/internal/events"
	executor "github.com/hanpama/graphplug/internal/executor"
	language "github.com/hanpama/graphplug/internal/language"
	reqid "github.com/hanpama/graphplug/internal/reqid"
	resolution "github.com/hanpama/graphplug/internal/resolution"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and formats responses per GraphQL spec.
type Handler struct {
	exec *executor.Executor
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GlobalHeaders lists HTTP headers exposed to resolvers as globals of the
	// resolution context, keyed by their lower case name. Default is none.
	GlobalHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// Cacheability is merged into what resolvers record to compute the
	// cache headers, e.g. the schema's own tags and max age.
	Cacheability resolution.Cacheability
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithGlobalHeaders(headers ...string) Option {
	return func(o *Options) { o.GlobalHeaders = headers }
}
func WithCacheability(c resolution.Cacheability) Option {
	return func(o *Options) { o.Cacheability = c }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// Response headers carrying the cacheability of a response.
const (
	HeaderRequestID     = "X-Request-Id"
	HeaderCacheTags     = "X-Cache-Tags"
	HeaderCacheContexts = "X-Cache-Contexts"
)

// RequestIDGlobal is the resolution context global holding the request id.
const RequestIDGlobal = "request_id"

// New creates a new GraphQL HTTP handler using the given runtime and schema.
func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) (*Handler, error) {
	exec := executor.NewExecutor(runtime, schema)
	op := Options{Timeout: 10 * time.Second, GraphiQL: true, Cacheability: resolution.Cacheability{MaxAge: resolution.Permanent}}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{exec: exec, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(HeaderRequestID))
	w.Header().Set(HeaderRequestID, rid)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: rec.status, Duration: time.Since(start)})
	}()

	h.serve(ctx, rec, r, rid)
}

func (h *Handler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, rid string) {
	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodPost:
	default:
		writeError(w, &requestError{status: http.StatusMethodNotAllowed, message: "method not allowed"}, h.opt.Pretty)
		return
	}

	if r.Method == http.MethodGet && h.opt.GraphiQL && !r.URL.Query().Has("query") && acceptsHTML(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	reqs, batch, err := decodeRequest(w, r, h.opt.MaxBodyBytes)
	if err != nil {
		writeError(w, err, h.opt.Pretty)
		return
	}

	globals := h.globals(r, rid)
	cache := h.opt.Cacheability
	results := make([]any, len(reqs))
	for i, req := range reqs {
		res, c := h.executeOne(ctx, req, globals)
		results[i] = res
		cache = cache.Merge(c)
	}
	setCacheHeaders(w, cache)
	if batch {
		writeJSON(w, http.StatusOK, results, h.opt.Pretty)
		return
	}
	writeJSON(w, http.StatusOK, results[0], h.opt.Pretty)
}

// globals collects the configured request headers and the request id.
func (h *Handler) globals(r *http.Request, rid string) map[string]any {
	globals := make(map[string]any, len(h.opt.GlobalHeaders)+1)
	for _, hdr := range h.opt.GlobalHeaders {
		if v := r.Header.Values(hdr); len(v) > 0 {
			globals[strings.ToLower(hdr)] = strings.Join(v, ", ")
		}
	}
	globals[RequestIDGlobal] = rid
	return globals
}

// uncacheable is the cacheability of failed operations and mutations.
var uncacheable = resolution.Cacheability{MaxAge: 0}

// executeOne runs one operation in its own resolution context and reports
// the cacheability its resolvers recorded.
func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest, globals map[string]any) (any, resolution.Cacheability) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return syntaxErrorResult(err), uncacheable
	}

	opType := ""
	if op := selectOperation(doc, req.OperationName); op != nil {
		opType = string(op.Operation)
	}

	rc := resolution.NewContext(globals)
	ctx = resolution.WithContext(ctx, rc)

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	cache := rc.Cacheability()
	if len(result.Errors) > 0 || opType != string(language.Query) {
		cache = cache.Merge(uncacheable)
	}
	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		CacheControl:  h.opt.Cacheability.Merge(cache).CacheControl(),
		Duration:      time.Since(start),
	})
	return formatResult(result), cache
}

// selectOperation picks the named operation, or the only one when no name
// is given.
func selectOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	return doc.Operations.ForName(name)
}

// statusRecorder remembers the status code for the HTTPFinish event.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
