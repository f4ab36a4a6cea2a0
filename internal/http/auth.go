package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// PermManageAccounting gates every /api route.
const PermManageAccounting = "manage_accounting"

// Authorizer decides whether a request holds a permission. Identity and
// sessions live outside this service.
type Authorizer interface {
	Allowed(r *http.Request, permission string) bool
}

// TokenAuthorizer grants manage_accounting to requests carrying one of the
// configured bearer tokens.
type TokenAuthorizer struct {
	tokens [][]byte
}

func NewTokenAuthorizer(tokens []string) *TokenAuthorizer {
	a := &TokenAuthorizer{}
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			a.tokens = append(a.tokens, []byte(t))
		}
	}
	return a
}

func (a *TokenAuthorizer) Allowed(r *http.Request, permission string) bool {
	if permission != PermManageAccounting {
		return false
	}
	token, ok := bearerToken(r)
	if !ok {
		return false
	}
	granted := 0
	for _, t := range a.tokens {
		granted |= subtle.ConstantTimeCompare(t, []byte(token))
	}
	return granted == 1
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AllowAll grants every permission. Used when AUTH_DISABLED is set.
type AllowAll struct{}

func (AllowAll) Allowed(*http.Request, string) bool { return true }
