package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrTokenNotFound     = errors.New("auth: token not found")
	ErrTokenInvalidInput = errors.New("auth: invalid token source")
)

type TokenExtractor func(*http.Request) (string, error)

type GateErrorHandler func(http.ResponseWriter, *http.Request, error)

type GateOption func(*gateConfig)

type gateConfig struct {
	verifier     TokenVerifier
	extractor    TokenExtractor
	errorHandler GateErrorHandler
}

func newGateConfig(verifier TokenVerifier, opts ...GateOption) (gateConfig, error) {
	if verifier == nil {
		return gateConfig{}, errors.New("auth: gate requires a token verifier")
	}
	cfg := gateConfig{
		verifier:     verifier,
		extractor:    CookieTokenExtractor(DefaultCookieName),
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.extractor == nil {
		cfg.extractor = CookieTokenExtractor(DefaultCookieName)
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = defaultErrorHandler
	}
	return cfg, nil
}

func WithTokenExtractor(extractor TokenExtractor) GateOption {
	return func(cfg *gateConfig) {
		if extractor != nil {
			cfg.extractor = extractor
		}
	}
}

// WithSessionCarrier reads the token from the carrier's cookie.
func WithSessionCarrier(carrier *SessionCarrier) GateOption {
	return func(cfg *gateConfig) {
		if carrier != nil {
			cfg.extractor = CookieTokenExtractor(carrier.Name())
		}
	}
}

func WithErrorHandler(handler GateErrorHandler) GateOption {
	return func(cfg *gateConfig) {
		if handler != nil {
			cfg.errorHandler = handler
		}
	}
}

func CookieTokenExtractor(name string) TokenExtractor {
	name = strings.TrimSpace(name)
	return func(r *http.Request) (string, error) {
		if name == "" {
			return "", ErrTokenInvalidInput
		}
		cookie, err := r.Cookie(name)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				return "", ErrTokenNotFound
			}
			return "", err
		}
		value := strings.TrimSpace(cookie.Value)
		if value == "" {
			return "", ErrTokenInvalidInput
		}
		return value, nil
	}
}

// RejectionMessage is the client-facing text for a gate failure.
func RejectionMessage(err error) string {
	if errors.Is(err, ErrSessionInvalid) {
		return "Invalid or expired session"
	}
	return "User not authenticated"
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": RejectionMessage(err),
	})
}
