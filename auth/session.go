package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the cookie that carries the session token.
const DefaultCookieName = "token"

var ErrNoSession = errors.New("auth: no session cookie")

// CookiePolicy describes the attributes of the session cookie.
type CookiePolicy struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// ProductionCookiePolicy allows cross-site use and requires HTTPS.
func ProductionCookiePolicy() CookiePolicy {
	return CookiePolicy{
		Name:     DefaultCookieName,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// DevelopmentCookiePolicy works over plain HTTP on localhost.
func DevelopmentCookiePolicy() CookiePolicy {
	return CookiePolicy{
		Name:     DefaultCookieName,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// CookiePolicyFor picks the policy matching the deployment environment.
func CookiePolicyFor(production bool) CookiePolicy {
	if production {
		return ProductionCookiePolicy()
	}
	return DevelopmentCookiePolicy()
}

// SessionCarrier writes, reads, and clears the session cookie.
type SessionCarrier struct {
	policy CookiePolicy
}

func NewSessionCarrier(policy CookiePolicy) *SessionCarrier {
	policy.Name = strings.TrimSpace(policy.Name)
	if policy.Name == "" {
		policy.Name = DefaultCookieName
	}
	if policy.Path == "" {
		policy.Path = "/"
	}
	if policy.SameSite == http.SameSiteDefaultMode {
		policy.SameSite = http.SameSiteLaxMode
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if policy.SameSite == http.SameSiteNoneMode {
		policy.Secure = true
	}
	return &SessionCarrier{policy: policy}
}

func (c *SessionCarrier) Name() string {
	return c.policy.Name
}

func (c *SessionCarrier) Policy() CookiePolicy {
	return c.policy
}

// Cookie builds the session cookie for token. Max-Age matches the token TTL.
func (c *SessionCarrier) Cookie(token IssuedToken) *http.Cookie {
	maxAge := int(token.TTL() / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     c.policy.Name,
		Value:    token.Raw,
		Path:     c.policy.Path,
		Domain:   c.policy.Domain,
		Expires:  token.ExpiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.policy.Secure,
		SameSite: c.policy.SameSite,
	}
}

// ClearCookie builds a cookie that makes the client discard the session.
func (c *SessionCarrier) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.policy.Name,
		Value:    "",
		Path:     c.policy.Path,
		Domain:   c.policy.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.policy.Secure,
		SameSite: c.policy.SameSite,
	}
}

func (c *SessionCarrier) Set(w http.ResponseWriter, token IssuedToken) {
	http.SetCookie(w, c.Cookie(token))
}

func (c *SessionCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.ClearCookie())
}

// Read returns the raw token from the request, or ErrNoSession.
func (c *SessionCarrier) Read(r *http.Request) (string, error) {
	raw, err := CookieTokenExtractor(c.policy.Name)(r)
	if err != nil {
		return "", ErrNoSession
	}
	return raw, nil
}
