package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/jwt"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
)

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }

func (created) Message() string { return "dialog opened" }

type body struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func newTestRouter(t *testing.T, yaml string) (*Router, string) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "onetimepin",
		Audiences: []string{"host"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	token, err := signer.Generate("alice", "crm")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	r := NewRouter(Config{
		Config:          cfg,
		UUID:            uid.NewUUID(),
		JWT:             signer,
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: map[string][]string{http.MethodGet: {"/public"}},
	})

	r.GETRaw("/events", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	r.GET("/public", func(*Request) (any, error) { return map[string]string{"hello": "world"}, nil })
	r.POST("/items", func(*Request) (any, error) { return created{ID: "d1"}, nil })
	r.DELETE("/items/:id", func(*Request) (any, error) { return nil, nil })
	r.GET("/items/:id", func(req *Request) (any, error) {
		switch req.GetParam("id") {
		case "missing":
			return nil, goerror.NewBusiness("dialog not found", goerror.CodeNotFound)
		case "bad":
			return nil, goerror.NewInvalidInput(nil, "value", "must be 6 digits")
		case "boom":
			return nil, errors.New("boom")
		case "panic":
			panic("kaboom")
		}
		return map[string]string{"id": req.GetParam("id")}, nil
	})

	return r, token
}

func serve(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, body) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var b body
	_ = json.Unmarshal(rec.Body.Bytes(), &b)
	return rec, b
}

func TestRouter(t *testing.T) {
	t.Parallel()

	r, token := newTestRouter(t, "app:\n  name: test\n")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantMsg    string
		wantCode   string
	}{
		{name: "HealthIsPublic", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantMsg: "ok"},
		{name: "ConfiguredPublicEndpoint", method: http.MethodGet, path: "/public", wantStatus: http.StatusOK, wantMsg: "request has been successfully"},
		{name: "MissingToken", method: http.MethodGet, path: "/items/1", wantStatus: http.StatusUnauthorized, wantMsg: "Authentication required"},
		{name: "InvalidToken", method: http.MethodGet, path: "/items/1", token: "nope", wantStatus: http.StatusUnauthorized, wantMsg: "Invalid or expired token"},
		{name: "Success", method: http.MethodGet, path: "/items/1", token: token, wantStatus: http.StatusOK, wantMsg: "request has been successfully"},
		{name: "CustomStatusAndMessage", method: http.MethodPost, path: "/items", token: token, wantStatus: http.StatusCreated, wantMsg: "dialog opened"},
		{name: "NilResponseIsNoContent", method: http.MethodDelete, path: "/items/1", token: token, wantStatus: http.StatusNoContent},
		{name: "BusinessError", method: http.MethodGet, path: "/items/missing", token: token, wantStatus: http.StatusNotFound, wantMsg: "dialog not found", wantCode: goerror.CodeNotFound.String()},
		{name: "ValidationError", method: http.MethodGet, path: "/items/bad", token: token, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation error", wantCode: goerror.CodeInvalidInput.String()},
		{name: "UnhandledError", method: http.MethodGet, path: "/items/boom", token: token, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "PanicIsRecovered", method: http.MethodGet, path: "/items/panic", token: token, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "UnknownRoute", method: http.MethodGet, path: "/nowhere", wantStatus: http.StatusNotFound, wantMsg: "endpoint not found"},
		{name: "WrongMethod", method: http.MethodPut, path: "/items", token: token, wantStatus: http.StatusMethodNotAllowed, wantMsg: "method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			rec, b := serve(r, tt.method, tt.path, tt.token)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if b.Message != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, b.Message)
			}
			if b.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, b.Code)
			}
		})
	}

	t.Run("ValidationFieldsAreReturned", func(t *testing.T) {
		t.Parallel()

		// Act
		_, b := serve(r, http.MethodGet, "/items/bad", token)

		// Assert
		if b.Error["value"] != "must be 6 digits" {
			t.Fatalf("expected field error for value, got %v", b.Error)
		}
	})

	t.Run("CorrelationIDIsEchoed", func(t *testing.T) {
		t.Parallel()

		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set(HeaderRequestID, "  req-42 ")
		rec := httptest.NewRecorder()

		// Act
		r.ServeHTTP(rec, req)

		// Assert
		if got := rec.Header().Get(HeaderCorrelationID); got != "req-42" {
			t.Fatalf("expected correlation id req-42, got %q", got)
		}
	})

	t.Run("CorrelationIDIsGenerated", func(t *testing.T) {
		t.Parallel()

		// Act
		rec, _ := serve(r, http.MethodGet, "/public", "")

		// Assert
		if rec.Header().Get(HeaderCorrelationID) == "" {
			t.Fatalf("expected a generated correlation id")
		}
	})
}

func TestRouter_Maintenance(t *testing.T) {
	t.Parallel()

	// Arrange
	r, token := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"/items/:id\"\n")

	// Act
	blocked, b := serve(r, http.MethodGet, "/items/1", token)
	open, _ := serve(r, http.MethodPost, "/items", token)

	// Assert
	if blocked.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", blocked.Code)
	}
	if b.Message != "service is under maintenance" {
		t.Fatalf("expected maintenance message, got %q", b.Message)
	}
	if open.Code != http.StatusCreated {
		t.Fatalf("expected other routes to stay open, got %d", open.Code)
	}
}

func TestRouter_EventStreamToken(t *testing.T) {
	t.Parallel()

	r, token := newTestRouter(t, "app:\n  name: test\n")

	tests := []struct {
		name       string
		accept     string
		query      string
		wantStatus int
	}{
		{name: "QueryTokenForEventStream", accept: "text/event-stream", query: "?access_token=" + token, wantStatus: http.StatusOK},
		{name: "QueryTokenIgnoredForJSON", accept: "application/json", query: "?access_token=" + token, wantStatus: http.StatusUnauthorized},
		{name: "InvalidQueryToken", accept: "text/event-stream", query: "?access_token=nope", wantStatus: http.StatusUnauthorized},
		{name: "NoToken", accept: "text/event-stream", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil)
			req.Header.Set("Accept", tt.accept)
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "Bearer", header: "Bearer abc", want: "abc", wantOK: true},
		{name: "CaseInsensitiveScheme", header: "bearer  abc ", want: "abc", wantOK: true},
		{name: "WrongScheme", header: "Basic abc"},
		{name: "MissingToken", header: "Bearer "},
		{name: "ExtraParts", header: "Bearer abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)

			// Act
			got, ok := bearerToken(req)

			// Assert
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestRedactedURI(t *testing.T) {
	t.Parallel()

	// Arrange
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=secret&x=1", nil)

	// Act
	got := redactedURI(req)

	// Assert
	if strings.Contains(got, "secret") || !strings.Contains(got, "x=1") {
		t.Fatalf("expected token redacted and other params kept, got %q", got)
	}
}

func TestClientAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "TrueClientIPFirst", headers: map[string]string{"True-Client-IP": "10.0.0.1", "X-Real-IP": "10.0.0.2"}, remote: "192.0.2.1:1234", want: "10.0.0.1"},
		{name: "ForwardedForFirstHop", headers: map[string]string{"X-Forwarded-For": " 10.0.0.3 , 10.0.0.4"}, remote: "192.0.2.1:1234", want: "10.0.0.3"},
		{name: "GarbageHeaderFallsBack", headers: map[string]string{"X-Real-IP": "nope"}, remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "MappedIPv4", remote: "[::ffff:192.0.2.9]:80", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			// Act
			got, ok := clientAddr(req)

			// Assert
			if !ok || got != netip.MustParseAddr(tt.want) {
				t.Fatalf("expected %s, got %s (ok=%v)", tt.want, got, ok)
			}
		})
	}
}

func TestRequest_DecodeBody(t *testing.T) {
	t.Parallel()

	type payload struct {
		Value string `json:"value"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "Valid", body: `{"value":"1234"}`},
		{name: "Empty", body: "  ", wantErr: "Request body is required"},
		{name: "UnknownField", body: `{"pin":"1"}`, wantErr: "Invalid request body"},
		{name: "TrailingData", body: `{"value":"1"} {}`, wantErr: "Invalid request body"},
		{name: "TooLarge", body: `{"value":"` + strings.Repeat("1", maxBodyBytes) + `"}`, wantErr: "Request body is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}
			var dst payload

			// Act
			err := req.DecodeBody(&dst)

			// Assert
			if tt.wantErr == "" {
				if err != nil || dst.Value != "1234" {
					t.Fatalf("expected value 1234 and nil error, got %q and %v", dst.Value, err)
				}
				return
			}
			var gerr *goerror.Error
			if !errors.As(err, &gerr) || gerr.Msg() != tt.wantErr {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}
