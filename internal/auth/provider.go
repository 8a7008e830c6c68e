package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"exceltoquiz/internal/domain"
)

// Provider hands out the current access token and owns session lifecycle.
type Provider struct {
	store Store
	now   func() time.Time
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store, now: time.Now}
}

// Login stores a session for accessToken. Expiry and identity fall back to
// the token's own claims when not given.
func (p *Provider) Login(accessToken, refreshToken string, user User) (Session, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Session{}, domain.NewError(domain.KindValidation, "login", "An access token is required.", domain.ErrInvalidInput)
	}

	session := Session{
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
		User:         user,
	}
	if claims, err := inspectToken(accessToken); err == nil {
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}
		if session.User.ID == "" {
			session.User.ID = claims.Subject
		}
		if session.User.Email == "" {
			session.User.Email = claims.Email
		}
	}
	if session.Expired(p.now()) {
		return Session{}, domain.NewError(domain.KindAuth, "login", "", domain.ErrSessionExpired)
	}

	if err := p.store.Save(session); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Logout clears the stored session.
func (p *Provider) Logout() error {
	return p.store.Clear()
}

// Session returns the live session, clearing it if it has expired.
func (p *Provider) Session() (Session, error) {
	session, err := p.store.Load()
	if err != nil {
		return Session{}, err
	}
	if session == nil {
		return Session{}, domain.ErrNotAuthenticated
	}
	if session.Expired(p.now()) {
		p.Invalidate()
		return Session{}, domain.ErrSessionExpired
	}
	return *session, nil
}

// Token returns the bearer token for authenticated backend calls.
func (p *Provider) Token(context.Context) (string, error) {
	session, err := p.Session()
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// Invalidate drops the session after the backend rejected it.
func (p *Provider) Invalidate() {
	if err := p.store.Clear(); err != nil {
		log.Printf("clear session: %v", err)
	}
}
