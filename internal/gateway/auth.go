package gateway

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/flemzord/toolgate/internal/security"
)

type reviewerKey struct{}

// reviewerFrom returns who authenticated the request: the basic auth user,
// or "bearer" for the shared token.
func reviewerFrom(ctx context.Context) string {
	name, _ := ctx.Value(reviewerKey{}).(string)
	return name
}

// authenticator guards the action API. Credentials are compared in
// constant time. Every attempt draws from the auth rate limit bucket and is
// audited.
type authenticator struct {
	cfg     AuthConfig
	audit   *security.AuditLogger
	limiter *security.RateLimiter
}

// check returns the reviewer name, or a failure reason.
func (a *authenticator) check(r *http.Request) (reviewer, reason string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && a.cfg.BearerToken != "" {
		if equal(token, a.cfg.BearerToken) {
			return "bearer", ""
		}
		return "", "invalid bearer token"
	}
	if user, pass, ok := r.BasicAuth(); ok && a.cfg.BasicUser != "" && a.cfg.BasicPass != "" {
		// Both comparisons run so timing does not reveal a valid user.
		userOK, passOK := equal(user, a.cfg.BasicUser), equal(pass, a.cfg.BasicPass)
		if userOK && passOK {
			return user, ""
		}
		return "", "invalid basic credentials"
	}
	return "", "unsupported authorization scheme"
}

func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter != nil {
			if err := a.limiter.Allow(security.KindAuth); err != nil {
				a.record(r, security.EventRateLimit, err.Error())
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
		}

		reviewer, reason := a.check(r)
		if reviewer == "" {
			a.record(r, security.EventAuthFailure, reason)
			w.Header().Set("WWW-Authenticate", `Basic realm="toolgate"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a.record(r, security.EventAuthSuccess, reviewer)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), reviewerKey{}, reviewer)))
	})
}

func (a *authenticator) record(r *http.Request, t security.EventType, detail string) {
	if a.audit == nil {
		return
	}
	a.audit.Log(security.AuditEvent{
		Type:       t,
		RemoteAddr: r.RemoteAddr,
		Detail:     detail,
		Metadata:   map[string]string{"method": r.Method, "path": r.URL.Path},
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
