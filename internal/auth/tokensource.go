package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrLoginRequired is returned by a Flow token source when there is no usable
// stored token and no interactive login may be attempted.
var ErrLoginRequired = errors.New("not logged in, run `ticktask auth login`")

// TokenSource returns an oauth2.TokenSource backed by the token store. Each
// token expires TokenTTL after it was saved; the next call refreshes it.
// It never starts an interactive login.
func (f *Flow) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &flowTokenSource{ctx: ctx, flow: f})
}

type flowTokenSource struct {
	ctx  context.Context
	flow *Flow
}

func (s *flowTokenSource) Token() (*oauth2.Token, error) {
	access, ok := s.flow.AccessToken(s.ctx)
	if !ok {
		return nil, ErrLoginRequired
	}

	expiry := s.flow.now().Add(time.Minute)
	if rec, ok := s.flow.store.Load(); ok && rec.AccessToken == access {
		expiry = rec.SavedAt.Add(TokenTTL)
	}
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}, nil
}
