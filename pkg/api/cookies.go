package api

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string // "lax", "strict" or "none"
	Secure   bool
}

// CookieManager sets and clears the session cookie
type CookieManager struct {
	config   CookieConfig
	sameSite http.SameSite
}

// NewCookieManager creates a cookie manager. An empty name defaults to auth_token.
func NewCookieManager(config CookieConfig) *CookieManager {
	if config.Name == "" {
		config.Name = "auth_token"
	}
	return &CookieManager{config: config, sameSite: parseSameSite(config.SameSite)}
}

// Name is the cookie the session guard reads
func (c *CookieManager) Name() string {
	return c.config.Name
}

// Set writes the session cookie. MaxAge follows the token lifetime.
func (c *CookieManager) Set(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.cookie(token, int(ttl/time.Second)))
}

// Clear expires the session cookie on the client
func (c *CookieManager) Clear(w http.ResponseWriter) {
	cookie := c.cookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

func (c *CookieManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.config.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.config.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: c.sameSite,
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
