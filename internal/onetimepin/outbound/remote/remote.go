package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// maxErrorBody bounds how much of a failed response is read for its detail.
	maxErrorBody = 4 * 1024
	// maxResponseBody bounds a successful response; function imports answer
	// with a few fields.
	maxResponseBody = 64 * 1024
)

// returnCodeMatched is the validateOTP return code of an accepted pin.
const returnCodeMatched = "0"

var (
	ErrBaseURL = errors.New("remote otp service base url is required")
	// ErrResponseTooLarge is returned when a successful response exceeds maxResponseBody.
	ErrResponseTooLarge = errors.New("remote otp service response is too large")
)

// Config points the client at the OData service that owns pin delivery.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	SAPClient string
	// Timeout bounds each call; zero leaves it to the transport.
	Timeout time.Duration
}

// Client calls the sendOTP and validateOTP function imports of an OData v2 service.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	ins  instrument.Instrumentation
}

func New(cfg Config, ins instrument.Instrumentation) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote otp service base url: %w", err)
	}

	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		ins: ins,
	}, nil
}

func (c *Client) Send(ctx context.Context, req dialog.SendRequest) error {
	ctx, span := c.startSpan(ctx, "Send", req.RequestID)
	defer span.End()

	_, err := c.call(ctx, "sendOTP", url.Values{
		"OTPRequestID": {literal(req.RequestID)},
		"OTPPurpose":   {literal(req.Purpose)},
		"MoCID":        {literal(req.ChannelID)},
		"MoCValue":     {literal(req.ChannelValue)},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

type validateResponse struct {
	D struct {
		ValidateOTP struct {
			ReturnCode string `json:"returnCode"`
		} `json:"validateOTP"`
	} `json:"d"`
}

func (c *Client) Validate(ctx context.Context, req dialog.ValidateRequest) (dialog.ValidateResult, error) {
	ctx, span := c.startSpan(ctx, "Validate", req.RequestID)
	defer span.End()

	body, err := c.call(ctx, "validateOTP", url.Values{
		"OTPRequestID": {literal(req.RequestID)},
		"OTPValue":     {literal(req.EnteredValue)},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dialog.NotMatched, err
	}

	var resp validateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return dialog.NotMatched, fmt.Errorf("decode validateOTP response: %w", err)
	}

	result := dialog.NotMatched
	if resp.D.ValidateOTP.ReturnCode == returnCodeMatched {
		result = dialog.Matched
	}
	span.SetAttributes(attribute.String("otp.result", result.String()))

	return result, nil
}

func (c *Client) startSpan(ctx context.Context, name, requestID string) (context.Context, trace.Span) {
	return c.ins.Tracer("onetimepin.outbound.remote").Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("otp.request_id", requestID)),
	)
}

// call issues GET {base}/{function}?{params} and returns the body of a 2xx response.
func (c *Client) call(ctx context.Context, function string, params url.Values) ([]byte, error) {
	if c.cfg.SAPClient != "" {
		params.Set("sap-client", c.cfg.SAPClient)
	}

	u := *c.base
	u.Path = u.Path + "/" + function
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &dialog.ServiceError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBody {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

type odataError struct {
	Error struct {
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// errorDetail extracts error.message.value from an OData error body and falls
// back to the raw body.
func errorDetail(raw []byte) string {
	var oe odataError
	if err := json.Unmarshal(raw, &oe); err == nil && oe.Error.Message.Value != "" {
		return oe.Error.Message.Value
	}
	return strings.TrimSpace(string(raw))
}

// literal quotes s as an OData v2 string literal.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
