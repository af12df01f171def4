package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// FetchRequest describes one authenticated backend call. Path is resolved
// against the configured backend base URL.
type FetchRequest struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Body    []byte
}

type backendUserEnvelope struct {
	User backendUserPayload `json:"user"`
}

type backendUserPayload struct {
	ID             string `json:"id"`
	DisplayAddress string `json:"display_address"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
}

// BackendSessionClient exchanges a provider credential for a
// backend-verified session and performs authenticated calls against the
// backend. Token lifetime is enforced here on read; the token store itself
// has no TTL logic.
type BackendSessionClient struct {
	baseURL      string
	loginPath    string
	logoutPath   string
	identityPath string
	timeout      time.Duration
	transport    TransportAdapter
	tokens       TokenStore
	logger       Logger
	now          func() time.Time

	onUnauthorized func(ctx context.Context)
}

func NewBackendSessionClient(
	cfg BackendConfig,
	transport TransportAdapter,
	tokens TokenStore,
	logger Logger,
) (*BackendSessionClient, error) {
	if transport == nil {
		return nil, fmt.Errorf("core: backend transport adapter is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("core: backend token store is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	loginPath := strings.TrimSpace(cfg.LoginPath)
	if loginPath == "" {
		loginPath = "/auth/login"
	}
	logoutPath := strings.TrimSpace(cfg.LogoutPath)
	if logoutPath == "" {
		logoutPath = "/auth/logout"
	}
	identityPath := strings.TrimSpace(cfg.IdentityPath)
	if identityPath == "" {
		identityPath = "/auth/identity"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BackendSessionClient{
		baseURL:      baseURL,
		loginPath:    loginPath,
		logoutPath:   logoutPath,
		identityPath: identityPath,
		timeout:      timeout,
		transport:    transport,
		tokens:       tokens,
		logger:       logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// OnUnauthorized registers the hook invoked when a backend call answers
// 401. The orchestrator uses it to clear the local session exactly once;
// retry policy stays with the caller.
func (c *BackendSessionClient) OnUnauthorized(fn func(ctx context.Context)) {
	if c == nil {
		return
	}
	c.onUnauthorized = fn
}

func (c *BackendSessionClient) Login(ctx context.Context, credential string, claimedAddress string) (BackendUser, error) {
	if c == nil || c.transport == nil {
		return BackendUser{}, fmt.Errorf("core: backend session client is not configured")
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return BackendUser{}, fmt.Errorf("core: login credential is required")
	}
	claimedAddress = strings.TrimSpace(claimedAddress)
	if claimedAddress == "" {
		return BackendUser{}, fmt.Errorf("core: claimed address is required")
	}

	body, err := json.Marshal(map[string]string{
		"credential": credential,
		"address":    claimedAddress,
	})
	if err != nil {
		return BackendUser{}, fmt.Errorf("core: encode login request: %w", err)
	}

	res, err := c.transport.Do(ctx, TransportRequest{
		Method:  http.MethodPost,
		URL:     c.baseURL + c.loginPath,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
		Timeout: c.timeout,
	})
	if err != nil {
		return BackendUser{}, networkError("core: backend login call failed", err)
	}
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusBadRequest:
		return BackendUser{}, goerrors.New("core: credential rejected by backend", goerrors.CategoryAuth).
			WithCode(res.StatusCode).
			WithTextCode(AuthErrorBackendRejected)
	default:
		return BackendUser{}, networkError(
			fmt.Sprintf("core: backend login returned status %d", res.StatusCode), nil)
	}

	envelope := backendUserEnvelope{}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return BackendUser{}, networkError("core: decode login response", err)
	}
	return envelope.User.toDomain(claimedAddress), nil
}

// CheckExistingSession recovers a session surviving a page reload. It must
// not trigger any provider UI: only the stored token and the backend
// identity endpoint are consulted.
func (c *BackendSessionClient) CheckExistingSession(ctx context.Context) (BackendUser, bool, error) {
	if c == nil || c.transport == nil || c.tokens == nil {
		return BackendUser{}, false, fmt.Errorf("core: backend session client is not configured")
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return BackendUser{}, false, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return BackendUser{}, false, nil
	}
	if c.tokenExpired(token) {
		_ = c.tokens.ClearToken(ctx)
		return BackendUser{}, false, nil
	}

	res, err := c.transport.Do(ctx, TransportRequest{
		Method:  http.MethodGet,
		URL:     c.baseURL + c.identityPath,
		Headers: map[string]string{"Authorization": "Bearer " + token},
		Timeout: c.timeout,
	})
	if err != nil {
		return BackendUser{}, false, networkError("core: backend identity call failed", err)
	}
	if res.StatusCode == http.StatusUnauthorized {
		_ = c.tokens.ClearToken(ctx)
		return BackendUser{}, false, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return BackendUser{}, false, networkError(
			fmt.Sprintf("core: backend identity returned status %d", res.StatusCode), nil)
	}

	envelope := backendUserEnvelope{}
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return BackendUser{}, false, networkError("core: decode identity response", err)
	}
	return envelope.User.toDomain(""), true, nil
}

// Logout revokes the backend session. Failures are reported but callers
// clear local state regardless.
func (c *BackendSessionClient) Logout(ctx context.Context) error {
	if c == nil || c.transport == nil {
		return fmt.Errorf("core: backend session client is not configured")
	}
	headers := map[string]string{}
	if token, err := c.tokens.GetToken(ctx); err == nil && strings.TrimSpace(token) != "" {
		headers["Authorization"] = "Bearer " + strings.TrimSpace(token)
	}
	res, err := c.transport.Do(ctx, TransportRequest{
		Method:  http.MethodPost,
		URL:     c.baseURL + c.logoutPath,
		Headers: headers,
		Timeout: c.timeout,
	})
	if err != nil {
		return networkError("core: backend logout call failed", err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return networkError(fmt.Sprintf("core: backend logout returned status %d", res.StatusCode), nil)
}

// AuthenticatedFetch performs a backend call with the current credential as
// a bearer header. A 401 clears the local session once through the
// registered hook; the response is still returned so the caller owns the
// retry decision.
func (c *BackendSessionClient) AuthenticatedFetch(ctx context.Context, req FetchRequest) (TransportResponse, error) {
	if c == nil || c.transport == nil || c.tokens == nil {
		return TransportResponse{}, fmt.Errorf("core: backend session client is not configured")
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return TransportResponse{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return TransportResponse{}, goerrors.New("core: no active credential", goerrors.CategoryAuth).
			WithTextCode(AuthErrorBackendRejected)
	}
	if c.tokenExpired(token) {
		_ = c.tokens.ClearToken(ctx)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return TransportResponse{}, goerrors.New("core: credential expired", goerrors.CategoryAuth).
			WithTextCode(AuthErrorBackendRejected)
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		headers[key] = value
	}
	res, err := c.transport.Do(ctx, TransportRequest{
		Method:  req.Method,
		URL:     c.baseURL + req.Path,
		Headers: headers,
		Query:   req.Query,
		Body:    req.Body,
		Timeout: c.timeout,
	})
	if err != nil {
		return TransportResponse{}, networkError("core: authenticated fetch failed", err)
	}
	if res.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return res, nil
}

// tokenExpired inspects a JWT-shaped token's exp claim without verifying
// the signature; verification belongs to the backend. Opaque tokens carry
// no local expiry and pass through.
func (c *BackendSessionClient) tokenExpired(token string) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	now := time.Now().UTC()
	if c != nil && c.now != nil {
		now = c.now()
	}
	return now.After(expiry.Time)
}

func (p backendUserPayload) toDomain(fallbackAddress string) BackendUser {
	address := strings.TrimSpace(p.DisplayAddress)
	if address == "" {
		address = strings.TrimSpace(p.Address)
	}
	if address == "" {
		address = strings.TrimSpace(fallbackAddress)
	}
	return BackendUser{
		ID:             strings.TrimSpace(p.ID),
		DisplayAddress: address,
		Email:          strings.TrimSpace(p.Email),
		DisplayName:    strings.TrimSpace(p.DisplayName),
	}
}

func networkError(message string, cause error) error {
	if cause == nil {
		return goerrors.New(message, goerrors.CategoryExternal).
			WithTextCode(AuthErrorNetwork)
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithTextCode(AuthErrorNetwork)
}
