package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"

	"invenbook/internal/config"
	"invenbook/internal/domain"

	"golang.org/x/time/rate"
)

// HTTPAuth provides API-key auth and per-key rate limiting for the façade.
type HTTPAuth struct {
	cfg      config.ServerConfig
	clients  map[string]config.ClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.ServerConfig) *HTTPAuth {
	m := make(map[string]config.ClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				writeDomainError(w, err)
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeDomainError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}

	apiKey := strings.TrimSpace(r.Header.Get(header))
	if apiKey == "" {
		return domain.Unauthenticated("missing api key")
	}

	client, ok := a.lookupClient(apiKey)
	if !ok {
		return domain.Unauthenticated("invalid api key")
	}

	if required := requiredPermission(r); required != "" {
		if !hasPermission(client, required) {
			return domain.PermissionDenied("permission denied")
		}
	}

	return nil
}

// lookupClient compares keys in constant time so key length and prefix
// matches are not observable.
func (a *HTTPAuth) lookupClient(apiKey string) (config.ClientKey, bool) {
	for key, client := range a.clients {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return client, true
		}
	}
	return config.ClientKey{}, false
}

// requiredPermission gates the privileged admin methods. An empty return
// means any authenticated client may call.
func requiredPermission(r *http.Request) string {
	switch r.URL.Path {
	case "/rpc/BookingService/GetAllBookings":
		return "read:all_bookings"
	case "/rpc/AuditService/GetAllLogs":
		return "read:all_logs"
	}
	return ""
}

// hasPermission treats an empty permissions list as allow-all.
func hasPermission(client config.ClientKey, required string) bool {
	if len(client.Permissions) == 0 {
		return true
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return &domain.Error{Code: domain.CodeResourceExhausted, Message: "rate limit exceeded"}
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}

	if apiKey := strings.TrimSpace(r.Header.Get(header)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
