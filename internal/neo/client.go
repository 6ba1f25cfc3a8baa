package neo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the vendor's fixed API host.
	DefaultBaseURL = "https://api.neosmartblinds.com"

	// DefaultTimeout bounds every network call. A timeout surfaces as a
	// transport failure, never as an authentication failure.
	DefaultTimeout = 15 * time.Second

	clientID   = "mobile"
	appOrigin  = "https://app.neosmartblinds.com"
	appReferer = "https://app.neosmartblinds.com/"
)

// PayloadLogMode controls how much of a command payload reaches the debug
// log. Redacted is the default; full logging is an explicit opt-in.
type PayloadLogMode string

const (
	PayloadLogNone     PayloadLogMode = "none"
	PayloadLogRedacted PayloadLogMode = "redacted"
	PayloadLogFull     PayloadLogMode = "full"
)

// Observer receives counters for API activity. Implementations must be safe
// for concurrent use.
type Observer interface {
	APIRequest(endpoint string, status int)
	TokenRefresh(success bool)
	CommandResult(success bool)
}

type nopObserver struct{}

func (nopObserver) APIRequest(string, int) {}
func (nopObserver) TokenRefresh(bool)      {}
func (nopObserver) CommandResult(bool)     {}

// Options tune a Client. The zero value gives production defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	PayloadLog PayloadLogMode
	Observer   Observer
	Logger     *zerolog.Logger
}

// Client is the session against the blinds cloud. It owns the credentials,
// the access/refresh token pair and everything derived from the current
// access token (user id, controller directory). One shared HTTP client is
// reused across login, refresh, command and schedule calls so connections
// are reused; no per-call client construction.
type Client struct {
	baseURL    string
	username   string
	password   string
	payloadLog PayloadLogMode
	obs        Observer
	log        zerolog.Logger
	httpClient *http.Client
	directory  *Directory

	// refreshMu serializes refresh attempts so an in-flight refresh is
	// never raced by a second one triggered by an overlapping 401.
	refreshMu sync.Mutex

	mu           sync.RWMutex // guards the fields below
	accessToken  string
	refreshToken string
	userID       string
	tokenGen     uint64
}

// NewClient creates an unauthenticated session. Call Login before issuing
// requests, or let the first authenticated call log in lazily.
func NewClient(username, password string, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	payloadLog := opts.PayloadLog
	if payloadLog == "" {
		payloadLog = PayloadLogRedacted
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		payloadLog: payloadLog,
		obs:        obs,
		log:        logger.With().Str("component", "neo").Logger(),
		httpClient: &http.Client{Timeout: timeout},
		directory:  NewDirectory(),
	}
}

// UserID returns the user identifier derived from the current access token,
// or "" before the first login.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Directory returns the controller directory. It is rebuilt on every
// successful login or refresh.
func (c *Client) Directory() *Directory { return c.directory }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges the stored credentials for a token pair and installs it.
// A rejected exchange or a 2xx response missing tokens is an *AuthError;
// transport failures propagate unchanged so callers can tell bad
// credentials from a network that is down.
func (c *Client) Login(ctx context.Context) error {
	c.log.Debug().Msg("Logging in to blinds cloud")
	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.password},
		"client_id":  {clientID},
	}
	tokens, err := c.tokenRequest(ctx, form)
	if err != nil {
		return err
	}
	if err := c.install(tokens); err != nil {
		return err
	}
	c.log.Info().Msg("Logged in to blinds cloud")
	return nil
}

// Refresh exchanges the stored refresh token for a new token pair. It never
// returns an error; callers use the boolean to decide whether a full
// re-login from credentials is needed.
func (c *Client) Refresh(ctx context.Context) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

// refreshLocked must be called with refreshMu held.
func (c *Client) refreshLocked(ctx context.Context) bool {
	c.mu.RLock()
	refreshToken := c.refreshToken
	c.mu.RUnlock()
	if refreshToken == "" {
		c.obs.TokenRefresh(false)
		return false
	}

	c.log.Debug().Msg("Refreshing access token")
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}
	tokens, err := c.tokenRequest(ctx, form)
	if err != nil {
		c.log.Error().Err(err).Msg("Token refresh failed, re-login required")
		c.obs.TokenRefresh(false)
		return false
	}
	if err := c.install(tokens); err != nil {
		c.log.Error().Err(err).Msg("Refreshed token unusable, re-login required")
		c.obs.TokenRefresh(false)
		return false
	}
	c.obs.TokenRefresh(true)
	c.log.Debug().Msg("Access token refreshed")
	return true
}

// refreshAfter401 refreshes unless another caller already installed a newer
// token pair, in which case that result is reused instead of issuing a
// second refresh.
func (c *Client) refreshAfter401(ctx context.Context, observedGen uint64) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	currentGen := c.tokenGen
	c.mu.RUnlock()
	if currentGen != observedGen {
		return true
	}
	return c.refreshLocked(ctx)
}

// tokenRequest posts a form-encoded grant to the token endpoint.
func (c *Client) tokenRequest(ctx context.Context, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", appOrigin)
	req.Header.Set("Referer", appReferer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, err
	}
	c.obs.APIRequest("/oauth/token", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokenResponse{}, &AuthError{
			Reason: "token endpoint rejected the grant",
			Err:    &HTTPError{StatusCode: resp.StatusCode, Body: string(body)},
		}
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return tokenResponse{}, &AuthError{Reason: "malformed token response", Err: err}
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return tokenResponse{}, &AuthError{Reason: "token response missing tokens"}
	}
	return tokens, nil
}

// install replaces the token pair and everything derived from it in one
// step, so user id and controller directory always match the current
// access token.
func (c *Client) install(tokens tokenResponse) error {
	userID, err := ClaimString(tokens.AccessToken, "usr")
	if err != nil {
		return &AuthError{Reason: "cannot derive user id from access token", Err: err}
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.userID = userID
	c.tokenGen++
	c.directory.Rebuild(tokens.AccessToken, c.log)
	c.mu.Unlock()
	return nil
}

func (c *Client) tokenState() (string, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.tokenGen
}

func (c *Client) hasToken() bool {
	token, _ := c.tokenState()
	return token != ""
}

// Request performs an authenticated exchange against the cloud API. It logs
// in first if no access token is held, attaches the bearer and fixed origin
// headers, and on a 401 refreshes and retries exactly once. The single-retry
// policy bounds the work when the refresh token itself has expired. Any
// non-2xx status after the possible retry is an *HTTPError.
func (c *Client) Request(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if !c.hasToken() {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	logger := c.log.With().
		Str("request_id", uuid.NewString()).
		Str("method", method).
		Str("path", path).
		Logger()

	token, gen := c.tokenState()
	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		logger.Debug().Msg("Access token expired, refreshing")
		if !c.refreshAfter401(ctx, gen) {
			return nil, &AuthError{Reason: "token refresh failed"}
		}
		token, _ = c.tokenState()
		resp, err = c.send(ctx, method, path, body, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().Int("status", resp.StatusCode).Msg("API request failed")
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", appOrigin)
	req.Header.Set("Referer", appReferer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.obs.APIRequest(endpointLabel(path), resp.StatusCode)
	return resp, nil
}

// endpointLabel collapses per-user and per-schedule path segments so observer
// labels stay low-cardinality and free of account identifiers.
func endpointLabel(path string) string {
	if strings.HasPrefix(path, "/location/") {
		if strings.Contains(path, "/schedules/") {
			return "/location/{id}/schedules/{id}"
		}
		return "/location/{id}"
	}
	return path
}

// FetchSnapshot issues an authenticated GET for the full account payload
// keyed by the current user id. The body is returned verbatim as decoded
// JSON; flattening it into entities is the snapshot parser's job.
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	if !c.hasToken() {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	body, err := c.Request(ctx, http.MethodGet, "/location/"+c.UserID(), nil)
	if err != nil {
		return nil, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if c.payloadLog == PayloadLogFull {
		c.log.Debug().RawJSON("snapshot", body).Msg("Snapshot received (unredacted)")
	} else {
		c.log.Debug().Msg("Snapshot received")
	}
	return snapshot, nil
}
