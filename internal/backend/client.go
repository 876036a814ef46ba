// Package backend talks to the external KoperasiHub REST API. The gateway
// never implements catalog, order or account logic itself; it authenticates
// the caller and forwards.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"koperasihub/internal/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrUnavailable = errors.New("backend unavailable")

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}, nil
}

type AuthResult struct {
	Token string
	User  models.User
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	// CaptchaToken is verified by the backend.
	CaptchaToken string `json:"captcha_token,omitempty"`
}

type Storefront struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerRole   string `json:"owner_role,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var resp authResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return AuthResult{}, err
	}
	return resp.result()
}

func (c *Client) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", input, &resp); err != nil {
		return AuthResult{}, err
	}
	return resp.result()
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	var resp struct {
		User *backendUser `json:"user"`
		Data *backendUser `json:"data"`
		backendUser
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return models.User{}, err
	}
	switch {
	case resp.User != nil:
		return resp.User.model(), nil
	case resp.Data != nil:
		return resp.Data.model(), nil
	default:
		return resp.backendUser.model(), nil
	}
}

func (c *Client) Storefront(ctx context.Context, slug string) (Storefront, error) {
	var resp struct {
		Data *Storefront `json:"data"`
		Storefront
	}
	if err := c.doJSON(ctx, http.MethodGet, "/stores/"+url.PathEscape(slug), "", nil, &resp); err != nil {
		return Storefront{}, err
	}
	if resp.Data != nil {
		return *resp.Data, nil
	}
	if resp.Slug == "" {
		resp.Slug = slug
	}
	return resp.Storefront, nil
}

// ForwardRequest describes a proxied call. Path is relative to the backend
// base URL.
type ForwardRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   io.Reader
	Token  string
}

// Forward sends the request upstream and returns the raw response. The caller
// owns the response body. Transport failures are wrapped in ErrUnavailable.
func (c *Client) Forward(ctx context.Context, fr ForwardRequest) (*http.Response, error) {
	target := c.resolve(fr.Path)
	target.RawQuery = fr.Query

	req, err := http.NewRequestWithContext(ctx, fr.Method, target.String(), fr.Body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for key, values := range fr.Header {
		if IsHopByHopHeader(key) || isCredentialHeader(key) {
			continue
		}
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if fr.Token != "" {
		req.Header.Set("Authorization", "Bearer "+fr.Token)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "backend request failed",
			"method", fr.Method,
			"path", fr.Path,
			"error", err,
			"duration", time.Since(start),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.logger.DebugContext(ctx, "backend request",
		"method", fr.Method,
		"path", fr.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	header := http.Header{}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		header.Set("Content-Type", "application/json")
	}
	resp, err := c.Forward(ctx, ForwardRequest{Method: method, Path: path, Header: header, Body: body, Token: token})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// DecodeError turns a non-2xx response into an *Error. The backend is not
// consistent about its error shape, so both {"message": ...} and
// {"error": {"code", "message"}} are understood.
func DecodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}
	if payload.Message != "" {
		apiErr.Message = payload.Message
	}
	if len(payload.Error) > 0 {
		var text string
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &text) == nil && text != "" {
			if payload.Message == "" {
				apiErr.Message = text
			}
		} else if json.Unmarshal(payload.Error, &nested) == nil {
			if nested.Code != "" {
				apiErr.Code = nested.Code
			}
			if nested.Message != "" {
				apiErr.Message = nested.Message
			}
		}
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "access_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		if status >= 500 {
			return "backend_error"
		}
		return "request_failed"
	}
}

func (c *Client) resolve(path string) url.URL {
	target := *c.baseURL
	target.Path = singleJoiningSlash(c.baseURL.Path, path)
	target.RawPath = ""
	return target
}

type authResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *backendUser `json:"user"`
	Data        *struct {
		Token       string       `json:"token"`
		AccessToken string       `json:"access_token"`
		User        *backendUser `json:"user"`
	} `json:"data"`
}

func (r authResponse) result() (AuthResult, error) {
	token := firstNonEmpty(r.Token, r.AccessToken)
	user := r.User
	if r.Data != nil {
		token = firstNonEmpty(token, r.Data.Token, r.Data.AccessToken)
		if user == nil {
			user = r.Data.User
		}
	}
	if token == "" || user == nil {
		return AuthResult{}, fmt.Errorf("decode backend response: missing token or user")
	}
	return AuthResult{Token: token, User: user.model()}, nil
}

// backendUser accepts numeric or string ids.
type backendUser struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  string          `json:"role"`
}

func (u backendUser) model() models.User {
	id := strings.Trim(string(u.ID), `"`)
	if id == "null" {
		id = ""
	}
	return models.User{
		ID:    id,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// IsHopByHopHeader reports headers that must not cross the proxy in either
// direction.
func IsHopByHopHeader(name string) bool {
	return hopByHopHeaders[strings.ToLower(name)]
}

// Caller credentials never travel upstream as-is; the session token is
// attached explicitly.
func isCredentialHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "cookie":
		return true
	}
	return false
}

func singleJoiningSlash(a, b string) string {
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}
	return a + b
}
