package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for the storefront API.
type CORSConfig struct {
	// AllowOrigins lists storefront origins allowed to call the API. Empty
	// or containing "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to the methods the API actually serves.
	AllowMethods []string
	// AllowHeaders lists request headers clients may send. Empty echoes the
	// preflight's Access-Control-Request-Headers back.
	AllowHeaders []string
	// AllowCredentials echoes the specific origin instead of "*" and sets
	// the credentials header.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits it.
	MaxAge int
}

// CORS returns middleware answering preflights and stamping CORS headers
// on actual requests. Responses vary on Origin so shared caches never
// serve one origin's grant to another.
func CORS(cfg CORSConfig) Middleware {
	c := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			c.actual(w, origin)
			next.ServeHTTP(w, r)
		})
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]string // lowercased -> configured form
	methods     string
	headers     string
	credentials bool
	maxAgeValue string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	c := &corsPolicy{
		anyOrigin:   len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.anyOrigin = true
			continue
		}
		c.origins[strings.ToLower(o)] = o
	}
	// Credentialed responses must name the origin, never "*".
	if c.credentials {
		c.anyOrigin = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		c.maxAgeValue = strconv.Itoa(cfg.MaxAge)
	}
	return c
}

// grant resolves the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed.
func (c *corsPolicy) grant(origin string) string {
	if c.anyOrigin {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}

func (c *corsPolicy) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	if allow := c.grant(origin); allow != "" {
		h.Set("Access-Control-Allow-Origin", allow)
		h.Set("Access-Control-Allow-Methods", c.methods)
		switch {
		case c.headers != "":
			h.Set("Access-Control-Allow-Headers", c.headers)
		default:
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
		}
		if c.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.maxAgeValue != "" {
			h.Set("Access-Control-Max-Age", c.maxAgeValue)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *corsPolicy) actual(w http.ResponseWriter, origin string) {
	h := w.Header()
	if !c.anyOrigin {
		h.Add("Vary", "Origin")
	}
	allow := c.grant(origin)
	if allow == "" {
		return
	}
	h.Set("Access-Control-Allow-Origin", allow)
	if c.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}
