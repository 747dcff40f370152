// Package api issues authenticated requests against the catalog backend and
// decodes its uniform response envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/logging"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/metrics"
	"github.com/Extwin-Synthesis/Synthesis-Assets-Explorer/internal/session"
)

const (
	// businessSuccess is the only success value for both envelope codes.
	businessSuccess = 200
	// businessTokenExpired is the ErrorCode the backend uses for a stale token.
	businessTokenExpired = 401
)

// Envelope is the uniform JSON wrapper returned by every backend endpoint.
type Envelope struct {
	ErrorCode   int             `json:"ErrorCode"`
	StatusCode  int             `json:"StatusCode"`
	MessageCode string          `json:"MessageCode"`
	Result      json.RawMessage `json:"Result"`
}

// TokenSource supplies the current auth token and absorbs expiry signals.
// auth.State implements it.
type TokenSource interface {
	Token() string
	MarkExpired()
}

// Options customizes a single request.
type Options struct {
	// Query is encoded into the URL.
	Query url.Values
	// Body is JSON-encoded as the request body when non-nil.
	Body interface{}
	// SkipBusinessCheck returns the raw Result without inspecting the
	// envelope's ErrorCode/StatusCode.
	SkipBusinessCheck bool
}

// Gateway sends requests through the shared session, injecting the Token
// header and decoding the response envelope. It never retries; retry policy
// belongs to callers.
type Gateway struct {
	sessions *session.Manager
	tokens   TokenSource
}

// NewGateway creates a gateway over the shared session manager.
func NewGateway(sessions *session.Manager, tokens TokenSource) *Gateway {
	return &Gateway{sessions: sessions, tokens: tokens}
}

// Request sends an HTTP request and returns the envelope's Result. Failures
// are classified as TransportError, ParsingError, BusinessError,
// TokenExpiredError, or UnexpectedError.
func (g *Gateway) Request(ctx context.Context, method, rawURL string, opts Options) (json.RawMessage, error) {
	start := time.Now()
	result, err := g.request(ctx, method, rawURL, opts)
	metrics.RecordAPIRequest(method, outcomeOf(err), time.Since(start))
	return result, err
}

func (g *Gateway) request(ctx context.Context, method, rawURL string, opts Options) (json.RawMessage, error) {
	reqID := uuid.NewString()
	log := logging.L().With(
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("url", rawURL),
	)

	req, err := g.build(ctx, method, rawURL, opts)
	if err != nil {
		log.Error("building request failed", zap.Error(err))
		return nil, &UnexpectedError{Cause: err}
	}

	client := g.sessions.Acquire()
	resp, err := client.Do(req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		return nil, &UnexpectedError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("reading response failed", zap.Error(err))
		return nil, &UnexpectedError{Cause: err}
	}

	log.Debug("response received", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("transport error", zap.Int("status", resp.StatusCode))
		return nil, &TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Error("undecodable response body", zap.Error(err))
		return nil, &ParsingError{Body: string(body), Err: err}
	}

	if !opts.SkipBusinessCheck {
		if env.ErrorCode == businessTokenExpired {
			log.Warn("token expired", zap.String("message", env.MessageCode))
			g.tokens.MarkExpired()
			metrics.RecordTokenExpired()
			return nil, &TokenExpiredError{BusinessError{
				ErrorCode:  env.ErrorCode,
				StatusCode: env.StatusCode,
				Message:    env.MessageCode,
			}}
		}
		if env.ErrorCode != businessSuccess || env.StatusCode != businessSuccess {
			log.Error("business error",
				zap.Int("error_code", env.ErrorCode),
				zap.Int("status_code", env.StatusCode),
				zap.String("message", env.MessageCode),
			)
			return nil, &BusinessError{
				ErrorCode:  env.ErrorCode,
				StatusCode: env.StatusCode,
				Message:    env.MessageCode,
			}
		}
	}

	if len(env.Result) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return env.Result, nil
}

// build constructs the http.Request with query, body, and the Token header.
// Callers never supply the Token header themselves.
func (g *Gateway) build(ctx context.Context, method, rawURL string, opts Options) (*http.Request, error) {
	if len(opts.Query) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Token", g.tokens.Token())
	return req, nil
}

// Get sends a GET request with query parameters.
func (g *Gateway) Get(ctx context.Context, rawURL string, query url.Values) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodGet, rawURL, Options{Query: query})
}

// Post sends a POST request with a JSON body.
func (g *Gateway) Post(ctx context.Context, rawURL string, body interface{}) (json.RawMessage, error) {
	return g.Request(ctx, http.MethodPost, rawURL, Options{Body: body})
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	default:
		if _, ok := AsTokenExpired(err); ok {
			return "token_expired"
		}
		if _, ok := AsBusiness(err); ok {
			return "business"
		}
		if _, ok := AsTransport(err); ok {
			return "transport"
		}
		if _, ok := AsParsing(err); ok {
			return "parsing"
		}
		return "unexpected"
	}
}
