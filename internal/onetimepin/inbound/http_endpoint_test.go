package inbound

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/config"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/jwt"
	"github.com/shandysiswandi/onetimepin/internal/pkg/router"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
)

type stubRemote struct{}

func (stubRemote) Send(context.Context, dialog.SendRequest) error { return nil }

func (stubRemote) Validate(_ context.Context, req dialog.ValidateRequest) (dialog.ValidateResult, error) {
	if req.EnteredValue == "123456" {
		return dialog.Matched, nil
	}
	return dialog.NotMatched, nil
}

type envelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

type testServer struct {
	handler http.Handler
	token   string
	other   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  onetimepin:\n    code_length: 6\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	sf, err := uid.NewSnowflake()
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "onetimepin",
		Audiences: []string{"host"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}

	ins := instrument.NewNoop()
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), JWT: signer, Instrument: ins})
	uc := usecase.NewOneTimePin(usecase.Dependency{
		Config:     cfg,
		RepoRemote: stubRemote{},
		UUID:       uid.NewUUID(),
		GUID:       uid.NewGUID(),
		UID:        sf,
		Clock:      clock.New(),
		Validator:  v,
		Texts:      dialog.NewCatalog(nil),
		Instrument: ins,
	})
	RegisterHTTPEndpoint(r, uc)

	token, _ := signer.Generate("alice", "crm")
	other, _ := signer.Generate("bob", "crm")

	return &testServer{handler: r, token: token, other: other}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func decodeDialog(t *testing.T, env envelope) DialogResponse {
	t.Helper()
	var d DialogResponse
	if err := json.Unmarshal(env.Data, &d); err != nil {
		t.Fatalf("decode dialog: %v", err)
	}
	return d
}

func (ts *testServer) open(t *testing.T) DialogResponse {
	t.Helper()
	code, env := ts.do(t, http.MethodPost, "/api/v1/onetimepin/dialogs", ts.token, OpenDialogRequest{
		Purpose:  "Block & Replace",
		Channels: []ChannelRequest{{ID: "0", Value: "082-9777444"}},
	})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %+v", code, env)
	}
	return decodeDialog(t, env)
}

func TestHTTPEndpoint_Authentication(t *testing.T) {
	t.Parallel()

	// Arrange
	ts := newTestServer(t)

	// Act
	code, env := ts.do(t, http.MethodPost, "/api/v1/onetimepin/dialogs", "", OpenDialogRequest{})
	healthCode, _ := ts.do(t, http.MethodGet, "/health", "", nil)

	// Assert
	if code != http.StatusUnauthorized || env.Message != "Authentication required" {
		t.Fatalf("expected 401, got %d %+v", code, env)
	}
	if healthCode != http.StatusOK {
		t.Fatalf("expected /health to be public, got %d", healthCode)
	}
}

func TestHTTPEndpoint_DialogFlow(t *testing.T) {
	t.Parallel()

	// Arrange
	ts := newTestServer(t)
	opened := ts.open(t)
	base := "/api/v1/onetimepin/dialogs/" + opened.DialogID

	// Act
	sendCode, sendEnv := ts.do(t, http.MethodPost, base+"/send", ts.token, nil)
	pinCode, pinEnv := ts.do(t, http.MethodPut, base+"/pin", ts.token, UpdatePinRequest{Value: "123456"})
	valCode, valEnv := ts.do(t, http.MethodPost, base+"/validate", ts.token, nil)
	getCode, getEnv := ts.do(t, http.MethodGet, base, ts.token, nil)

	// Assert
	if opened.Phase != "idle" || opened.SelectedChannelID != "0" {
		t.Fatalf("unexpected opened dialog %+v", opened)
	}
	if sendCode != http.StatusOK {
		t.Fatalf("expected 200 on send, got %d", sendCode)
	}
	sent := decodeDialog(t, sendEnv)
	if sent.Phase != "sent" || sent.RemainingSeconds == nil || sent.Message == nil || sent.Message.Severity != "success" {
		t.Fatalf("unexpected sent dialog %+v", sent)
	}
	var pin UpdatePinResponse
	_ = json.Unmarshal(pinEnv.Data, &pin)
	if pinCode != http.StatusOK || !pin.ConfirmEnabled {
		t.Fatalf("expected confirm enabled, got %d %+v", pinCode, pin)
	}
	if valCode != http.StatusOK || decodeDialog(t, valEnv).Phase != "validated" {
		t.Fatalf("expected validated, got %d %s", valCode, valEnv.Data)
	}
	if getCode != http.StatusOK || decodeDialog(t, getEnv).Phase != "validated" {
		t.Fatalf("expected validated on get, got %d", getCode)
	}
}

func TestHTTPEndpoint_Errors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	opened := ts.open(t)
	base := "/api/v1/onetimepin/dialogs/" + opened.DialogID

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "UnknownDialog", method: http.MethodGet, path: "/api/v1/onetimepin/dialogs/0192f7c6-2a3b-7c4d-8e5f-6a7b8c9d0e1f", token: ts.token, wantCode: http.StatusNotFound, wantErr: "ERROR_CODE_NOT_FOUND"},
		{name: "OtherOwner", method: http.MethodGet, path: base, token: ts.other, wantCode: http.StatusNotFound, wantErr: "ERROR_CODE_NOT_FOUND"},
		{name: "MalformedID", method: http.MethodGet, path: "/api/v1/onetimepin/dialogs/nope", token: ts.token, wantCode: http.StatusUnprocessableEntity, wantErr: "ERROR_CODE_INVALID_INPUT"},
		{name: "ResendWhileIdle", method: http.MethodPost, path: base + "/resend", token: ts.token, wantCode: http.StatusConflict, wantErr: "ERROR_CODE_CONFLICT"},
		{name: "ValidateWhileIdle", method: http.MethodPost, path: base + "/validate", token: ts.token, wantCode: http.StatusConflict, wantErr: "ERROR_CODE_CONFLICT"},
		{name: "UnknownChannel", method: http.MethodPut, path: base + "/channel", token: ts.token, body: SelectChannelRequest{ChannelID: "9"}, wantCode: http.StatusUnprocessableEntity, wantErr: "ERROR_CODE_INVALID_INPUT"},
		{name: "NoChannels", method: http.MethodPost, path: "/api/v1/onetimepin/dialogs", token: ts.token, body: OpenDialogRequest{Purpose: "p"}, wantCode: http.StatusUnprocessableEntity, wantErr: "ERROR_CODE_INVALID_INPUT"},
		{name: "MissingBody", method: http.MethodPut, path: base + "/pin", token: ts.token, wantCode: http.StatusBadRequest, wantErr: "ERROR_CODE_INVALID_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			code, env := ts.do(t, tt.method, tt.path, tt.token, tt.body)

			// Assert
			if code != tt.wantCode || env.Code != tt.wantErr {
				t.Fatalf("expected %d %s, got %d %+v", tt.wantCode, tt.wantErr, code, env)
			}
		})
	}
}

func TestHTTPEndpoint_CancelAndClose(t *testing.T) {
	t.Parallel()

	// Arrange
	ts := newTestServer(t)
	first := ts.open(t)
	second := ts.open(t)

	// Act
	cancelCode, _ := ts.do(t, http.MethodPost, "/api/v1/onetimepin/dialogs/"+first.DialogID+"/cancel", ts.token, nil)
	closeCode, _ := ts.do(t, http.MethodDelete, "/api/v1/onetimepin/dialogs/"+second.DialogID, ts.token, nil)

	// Assert
	if cancelCode != http.StatusNoContent || closeCode != http.StatusNoContent {
		t.Fatalf("expected 204 twice, got %d and %d", cancelCode, closeCode)
	}
	for _, id := range []string{first.DialogID, second.DialogID} {
		if code, _ := ts.do(t, http.MethodGet, "/api/v1/onetimepin/dialogs/"+id, ts.token, nil); code != http.StatusNotFound {
			t.Fatalf("expected dialog %s gone, got %d", id, code)
		}
	}
}

func TestHTTPEndpoint_StreamDialog(t *testing.T) {
	t.Parallel()

	// Arrange
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()
	opened := ts.open(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/onetimepin/dialogs/"+opened.DialogID+"/stream", nil)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request error = %v", err)
	}
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)
	if line, _ := reader.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("expected the connected comment, got %q", line)
	}

	// Act
	code, _ := ts.do(t, http.MethodPost, "/api/v1/onetimepin/dialogs/"+opened.DialogID+"/send", ts.token, nil)

	// Assert
	if code != http.StatusOK {
		t.Fatalf("expected 200 on send, got %d", code)
	}
	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("expected a surface event, read error = %v", err)
		}
		if line == "event: surface\n" {
			data, _ := reader.ReadString('\n')
			if !strings.HasPrefix(data, "data: {") || !strings.Contains(data, opened.DialogID) {
				t.Fatalf("unexpected event data %q", data)
			}
			return
		}
	}
}

func TestHTTPEndpoint_StreamDialog_NotFound(t *testing.T) {
	t.Parallel()

	// Arrange
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/onetimepin/dialogs/0192f7c6-2a3b-7c4d-8e5f-6a7b8c9d0e1f/stream", nil)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()

	// Act
	ts.handler.ServeHTTP(rec, req)

	// Assert
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
