package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/teemow/ticktask/internal/logging"
)

const defaultCallbackPort = "8080"

// AuthorizationResult is the outcome of one browser redirect.
// Exactly one of Code and Error is set.
type AuthorizationResult struct {
	Code  string
	Error string
	// State echoes the state parameter of the redirect, if any.
	State string
}

// Receiver captures a single authorization redirect.
type Receiver interface {
	// Start binds the listener. It fails with *BindError if the address is taken.
	Start() error
	// Await blocks until a result is recorded, the timeout elapses
	// (ErrAuthorizationTimeout) or ctx is done.
	Await(ctx context.Context, timeout time.Duration) (AuthorizationResult, error)
	// Stop releases the listener. Calling it more than once is safe.
	Stop() error
}

// CallbackReceiver is a Receiver backed by a local HTTP server.
type CallbackReceiver struct {
	addr   string
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server

	resultCh chan AuthorizationResult
	stopOnce sync.Once
	stopErr  error
}

// NewCallbackReceiver creates a receiver listening on addr (host:port) and
// serving the redirect on path.
func NewCallbackReceiver(addr, path string, logger *slog.Logger) *CallbackReceiver {
	if path == "" {
		path = "/"
	}
	return &CallbackReceiver{
		addr:     addr,
		path:     path,
		logger:   logging.OrDiscard(logger),
		resultCh: make(chan AuthorizationResult, 1),
	}
}

// CallbackAddress derives the listen address and path from a redirect URI.
// The port defaults to 8080 and the path to "/".
func CallbackAddress(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = defaultCallbackPort
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}

// Start implements Receiver.
func (r *CallbackReceiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.server != nil {
		return fmt.Errorf("callback receiver already started")
	}

	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return &BindError{Addr: r.addr, Err: err}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(r.path, r.handleCallback)

	r.listener = ln
	r.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback server stopped unexpectedly", logging.Err(err))
		}
	}()

	r.logger.Debug("callback receiver listening", "addr", ln.Addr().String(), "path", r.path)
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (r *CallbackReceiver) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return r.addr
	}
	return r.listener.Addr().String()
}

// Await implements Receiver.
func (r *CallbackReceiver) Await(ctx context.Context, timeout time.Duration) (AuthorizationResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-r.resultCh:
		return res, nil
	case <-timer.C:
		return AuthorizationResult{}, ErrAuthorizationTimeout
	case <-ctx.Done():
		return AuthorizationResult{}, ctx.Err()
	}
}

// Stop implements Receiver.
func (r *CallbackReceiver) Stop() error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		srv := r.server
		r.mu.Unlock()
		if srv == nil {
			return
		}
		if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.stopErr = fmt.Errorf("failed to stop callback receiver: %w", err)
		}
		r.logger.Debug("callback receiver stopped")
	})
	return r.stopErr
}

// record stores the first result. Later results are dropped.
func (r *CallbackReceiver) record(res AuthorizationResult) bool {
	select {
	case r.resultCh <- res:
		return true
	default:
		return false
	}
}

func (r *CallbackReceiver) handleCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := req.URL.Query()
	code := q.Get("code")
	errParam := q.Get("error")

	if code == "" && errParam == "" {
		writePage(w, http.StatusBadRequest, "Authorization failed", "No authorization code was received.")
		return
	}

	res := AuthorizationResult{State: q.Get("state")}
	if errParam != "" {
		res.Error = errParam
		if desc := q.Get("error_description"); desc != "" {
			res.Error = errParam + ": " + desc
		}
	} else {
		res.Code = code
	}

	if !r.record(res) {
		r.logger.Debug("ignoring repeated authorization callback")
		writePage(w, http.StatusOK, "Already received", "You can close this window.")
		return
	}

	if res.Error != "" {
		r.logger.Warn("authorization callback reported an error", "reason", res.Error)
		writePage(w, http.StatusBadRequest, "Authorization failed", res.Error)
		return
	}

	r.logger.Debug("authorization code received")
	writePage(w, http.StatusOK, "Authentication successful", "You can close this window and return to the terminal.")
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>ticktask - %[1]s</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 50px;">
<h1>%[1]s</h1>
<p>%[2]s</p>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(message))
}
