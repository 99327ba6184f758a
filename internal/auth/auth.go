// Package auth resolves who is practicing. The only identity the rest of the
// application needs is a user id, used to key remote persistence.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Provider exposes the signed-in user
type Provider interface {
	// Current returns the user id, or "" when signed out
	Current() string
	// Subscribe returns a channel receiving the user id after every change
	Subscribe() <-chan string
}

// TokenVerifier issues and verifies HS256 tokens whose subject is the user id
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue returns a signed token for the user, valid for ttl
func (v *TokenVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("SignedString() > %w", err)
	}
	return token, nil
}

// Verify returns the user id of a valid token
func (v *TokenVerifier) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// UserFromHeader verifies an "Authorization: Bearer" header. An empty header
// is an anonymous request.
func (v *TokenVerifier) UserFromHeader(header string) (string, error) {
	if header == "" {
		return "", nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", fmt.Errorf("%w: expected a bearer token", ErrInvalidToken)
	}
	return v.Verify(strings.TrimSpace(token))
}

type contextKey struct{}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the user id stored in ctx, or "" for anonymous requests
func UserFrom(ctx context.Context) string {
	userID, _ := ctx.Value(contextKey{}).(string)
	return userID
}

// TokenProvider holds the identity of a token-based sign-in
type TokenProvider struct {
	verifier *TokenVerifier

	mu          sync.Mutex
	current     string
	subscribers []chan string
}

func NewTokenProvider(verifier *TokenVerifier) *TokenProvider {
	return &TokenProvider{verifier: verifier}
}

func (p *TokenProvider) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SignIn verifies the token and makes its subject the current user
func (p *TokenProvider) SignIn(token string) (string, error) {
	userID, err := p.verifier.Verify(token)
	if err != nil {
		return "", err
	}
	p.set(userID)
	return userID, nil
}

func (p *TokenProvider) SignOut() {
	p.set("")
}

// Subscribe returns a channel that only keeps the latest change
func (p *TokenProvider) Subscribe() <-chan string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan string, 1)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

func (p *TokenProvider) set(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == userID {
		return
	}
	p.current = userID
	for _, ch := range p.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- userID
	}
}

// StaticProvider always returns the same user, such as the one configured
// for the CLI.
type StaticProvider struct {
	UserID string
}

func (p StaticProvider) Current() string {
	return p.UserID
}

// Subscribe returns a closed channel since the user never changes
func (p StaticProvider) Subscribe() <-chan string {
	ch := make(chan string)
	close(ch)
	return ch
}
