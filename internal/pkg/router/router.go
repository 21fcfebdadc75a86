package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/jwt"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Optional interfaces a handler response may implement to shape the envelope.
type (
	statusCoder interface{ StatusCode() int }
	messenger   interface{ Message() string }
	metaCarrier interface{ Meta() map[string]any }
)

// Handler returns a payload to be wrapped in the JSON envelope, or an error
// to be mapped through goerror.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config is read per request by the maintenance switch.
	Config config.Config
	// UUID generates correlation IDs for requests that bring none.
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	// PublicEndpoints maps a method to route patterns that skip authentication.
	PublicEndpoints map[string][]string
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the router with its standard middleware chain. "/" and
// "/health" are always public.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound:               messageHandler("endpoint not found", http.StatusNotFound),
		MethodNotAllowed:       messageHandler("method not allowed", http.StatusMethodNotAllowed),
	}
	hr.Handler(http.MethodGet, "/", messageHandler("Welcome to API OneTimePin", http.StatusOK))
	hr.Handler(http.MethodGet, "/health", messageHandler("ok", http.StatusOK))

	public := map[string]map[string]struct{}{}
	allow := func(method, path string) {
		if public[method] == nil {
			public[method] = map[string]struct{}{}
		}
		public[method][path] = struct{}{}
	}
	allow(http.MethodGet, "/")
	allow(http.MethodGet, "/health")
	for method, paths := range cfg.PublicEndpoints {
		for _, path := range paths {
			allow(method, path)
		}
	}

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, public),
		},
	}
}

// GET registers a JSON endpoint.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a GET endpoint that owns the response writer, such as an
// event stream.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, r.chain(h, mws))
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func (r *Router) chain(h http.Handler, extra []Middleware) http.Handler {
	mws := make([]Middleware, 0, len(r.mws)+len(extra))
	return Chain(h, append(append(mws, r.mws...), extra...)...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, r.chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(req, w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws))
}

func writeError(r *http.Request, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(r.Context(), "unhandled error returned by handler", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Code: gerr.Code().String(), Error: gerr.Fields()}
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(messenger); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(metaCarrier); ok {
		env.Meta = m.Meta()
	}
	writeJSON(w, env, code)
}

func messageHandler(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: msg}, code)
	})
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
