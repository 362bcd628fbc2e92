package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/logging"
)

const (
	// DefaultBaseURL is the provider host serving /oauth/authorize and /oauth/token.
	DefaultBaseURL = "https://ticktick.com"

	// DefaultRedirectURI must match the redirect URI registered for the client.
	DefaultRedirectURI = "http://localhost:8080/callback"

	// DefaultLoginTimeout bounds how long Login waits for the browser redirect.
	DefaultLoginTimeout = 300 * time.Second

	// TokenTTL is the age after which a stored access token is refreshed.
	// The provider does not reliably report expiry.
	TokenTTL = time.Hour

	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// DefaultScopes are requested on every login.
var DefaultScopes = []string{"tasks:read", "tasks:write"}

// State is the position of a Flow in the login state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingCallback
	StateExchanging
	StateAuthenticated
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateExchanging:
		return "exchanging"
	case StateAuthenticated:
		return "authenticated"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FlowConfig configures a Flow. Only ClientID, ClientSecret and Store are required.
type FlowConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
	Scopes       []string
	LoginTimeout time.Duration

	Store TokenStore

	// HTTPClient is used for token endpoint requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics

	// OpenBrowser opens the authorization URL. Defaults to browser.OpenURL.
	OpenBrowser func(url string) error
	// OnAuthorizationURL is called with the URL before the browser is opened,
	// so a CLI can print it for manual use.
	OnAuthorizationURL func(url string)
	// NewReceiver creates the callback receiver. Defaults to a CallbackReceiver.
	NewReceiver func(addr, path string) Receiver
	// Now defaults to time.Now.
	Now func() time.Time
}

// Flow drives the authorization-code flow and hands out access tokens.
type Flow struct {
	oauth        *oauth2.Config
	store        TokenStore
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
	loginTimeout time.Duration

	openBrowser  func(string) error
	onAuthURL    func(string)
	newReceiver  func(addr, path string) Receiver
	now          func() time.Time
	callbackAddr string
	callbackPath string

	mu    sync.Mutex
	state State
}

// NewFlow validates cfg and returns a Flow in StateIdle.
// Missing client credentials yield a *ConfigurationError.
func NewFlow(cfg FlowConfig) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, &ConfigurationError{Field: "client_id"}
	}
	if cfg.ClientSecret == "" {
		return nil, &ConfigurationError{Field: "client_secret"}
	}
	if cfg.Store == nil {
		return nil, &ConfigurationError{Field: "token store"}
	}

	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}

	addr, path, err := CallbackAddress(cfg.RedirectURI)
	if err != nil {
		return nil, &ConfigurationError{Field: "redirect_uri", Err: err}
	}

	f := &Flow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   strings.TrimRight(cfg.BaseURL, "/") + "/oauth/authorize",
				TokenURL:  strings.TrimRight(cfg.BaseURL, "/") + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:        cfg.Store,
		httpClient:   cfg.HTTPClient,
		logger:       logging.OrDiscard(cfg.Logger),
		metrics:      cfg.Metrics,
		loginTimeout: cfg.LoginTimeout,
		openBrowser:  cfg.OpenBrowser,
		onAuthURL:    cfg.OnAuthorizationURL,
		newReceiver:  cfg.NewReceiver,
		now:          cfg.Now,
		callbackAddr: addr,
		callbackPath: path,
		state:        StateIdle,
	}

	if f.openBrowser == nil {
		f.openBrowser = browser.OpenURL
	}
	if f.newReceiver == nil {
		logger := f.logger
		f.newReceiver = func(addr, path string) Receiver {
			return NewCallbackReceiver(addr, path, logger)
		}
	}
	if f.now == nil {
		f.now = time.Now
	}

	return f, nil
}

// State returns the current login state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	prev := f.state
	f.state = s
	f.mu.Unlock()
	if prev != s {
		f.logger.Debug("auth state changed", "from", prev.String(), "to", s.String())
	}
}

// AuthorizationURL returns the provider URL the user must visit.
func (f *Flow) AuthorizationURL(state string) string {
	return f.oauth.AuthCodeURL(state)
}

// AccessToken returns a usable access token without user interaction.
// A token younger than TokenTTL is returned as stored; an older one is
// refreshed. It returns false when there is no token, no refresh token, or
// the refresh fails.
func (f *Flow) AccessToken(ctx context.Context) (string, bool) {
	rec, ok := f.store.Load()
	if !ok {
		return "", false
	}

	age := f.now().Sub(rec.SavedAt)
	if age < TokenTTL {
		return rec.AccessToken, true
	}

	if rec.RefreshToken == "" {
		f.logger.Info("stored access token is stale and there is no refresh token", "age", age.Round(time.Second))
		return "", false
	}

	refreshed, err := f.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		f.logger.Warn("token refresh failed, login required", logging.Err(err))
		return "", false
	}
	return refreshed.AccessToken, true
}

// EnsureAccessToken returns a stored or refreshed token, falling back to an
// interactive Login.
func (f *Flow) EnsureAccessToken(ctx context.Context) (string, error) {
	if token, ok := f.AccessToken(ctx); ok {
		return token, nil
	}
	return f.Login(ctx)
}

// Login runs the interactive browser flow and stores the resulting tokens.
func (f *Flow) Login(ctx context.Context) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.login")
	defer span.End()

	f.setState(StateIdle)

	state := uuid.NewString()
	res, err := f.awaitCallback(ctx, f.AuthorizationURL(state))
	if err != nil {
		result := instrumentation.OAuthResultFailure
		if errors.Is(err, ErrAuthorizationTimeout) {
			result = instrumentation.OAuthResultTimeout
		}
		return "", f.fail(ctx, span, result, err)
	}

	if res.Error != "" {
		return "", f.fail(ctx, span, instrumentation.OAuthResultDenied, &AuthorizationError{Reason: res.Error})
	}
	if res.State != "" && res.State != state {
		return "", f.fail(ctx, span, instrumentation.OAuthResultFailure, &AuthorizationError{Reason: "state mismatch"})
	}
	instrumentation.AddSpanEvent(span, "callback_received")

	f.setState(StateExchanging)
	rec, err := f.Exchange(ctx, res.Code)
	if err != nil {
		return "", f.fail(ctx, span, instrumentation.OAuthResultFailure, err)
	}

	f.setState(StateAuthenticated)
	f.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	f.logger.Info("authenticated", "access_token", logging.SanitizeToken(rec.AccessToken))

	return rec.AccessToken, nil
}

// awaitCallback owns the receiver for one login attempt. The receiver is
// stopped on every return path before the code is exchanged.
func (f *Flow) awaitCallback(ctx context.Context, authURL string) (AuthorizationResult, error) {
	receiver := f.newReceiver(f.callbackAddr, f.callbackPath)
	if err := receiver.Start(); err != nil {
		return AuthorizationResult{}, err
	}
	defer func() {
		if err := receiver.Stop(); err != nil {
			f.logger.Warn("failed to stop callback receiver", logging.Err(err))
		}
	}()

	f.setState(StateAwaitingCallback)

	if f.onAuthURL != nil {
		f.onAuthURL(authURL)
	}
	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warn("failed to open browser, visit the authorization URL manually", logging.Err(err))
	}

	return receiver.Await(ctx, f.loginTimeout)
}

func (f *Flow) fail(ctx context.Context, span trace.Span, result string, err error) error {
	f.setState(StateErrored)
	f.metrics.RecordOAuthAuth(ctx, result)
	instrumentation.SetSpanError(span, err)
	f.logger.Error("login failed", "result", result, logging.Err(err))
	return err
}

// Exchange trades an authorization code for tokens and stores them.
func (f *Flow) Exchange(ctx context.Context, code string) (TokenRecord, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.exchange",
		attribute.String(instrumentation.SpanAttrGrantType, grantAuthorizationCode))
	defer span.End()

	tok, err := f.oauth.Exchange(f.httpContext(ctx), code,
		oauth2.SetAuthURLParam("scope", strings.Join(f.oauth.Scopes, " ")))
	if err != nil {
		err = newExchangeError(grantAuthorizationCode, err)
		instrumentation.SetSpanError(span, err)
		return TokenRecord{}, err
	}

	rec, err := f.store.Save(TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return TokenRecord{}, err
	}

	instrumentation.SetSpanSuccess(span)
	return rec, nil
}

// Refresh mints a new access token and stores it. The previous refresh token
// is kept when the response does not carry a new one.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (TokenRecord, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.refresh",
		attribute.String(instrumentation.SpanAttrGrantType, grantRefreshToken))
	defer span.End()

	src := f.oauth.TokenSource(f.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		err = newExchangeError(grantRefreshToken, err)
		instrumentation.SetSpanError(span, err)
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return TokenRecord{}, err
	}

	next := tok.RefreshToken
	if next == "" {
		next = refreshToken
	}

	rec, err := f.store.Save(TokenRecord{AccessToken: tok.AccessToken, RefreshToken: next})
	if err != nil {
		instrumentation.SetSpanError(span, err)
		f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return TokenRecord{}, err
	}

	f.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	f.logger.Debug("refreshed access token", "access_token", logging.SanitizeToken(rec.AccessToken))
	return rec, nil
}

// Logout removes the stored tokens.
func (f *Flow) Logout() error {
	if err := f.store.Clear(); err != nil {
		return err
	}
	f.setState(StateIdle)
	f.logger.Info("logged out")
	return nil
}

func (f *Flow) httpContext(ctx context.Context) context.Context {
	if f.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

func newExchangeError(grantType string, err error) *ExchangeError {
	exErr := &ExchangeError{GrantType: grantType, Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		exErr.StatusCode = re.Response.StatusCode
	}
	return exErr
}
