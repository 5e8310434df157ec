package httpapi

import (
	"net/http"
	"time"

	tubeAuth "github.com/MrEthical07/tubeAuth"
)

func (h *Handler) tokenCookie(name, value string, expires time.Time) *http.Cookie {
	cfg := h.engine.CookieConfig()
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: cfg.SameSite,
	}
	if value == "" {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.Expires = expires
	}
	return c
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, pair tubeAuth.TokenPair) {
	cfg := h.engine.CookieConfig()
	http.SetCookie(w, h.tokenCookie(cfg.AccessName, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, h.tokenCookie(cfg.RefreshName, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	cfg := h.engine.CookieConfig()
	http.SetCookie(w, h.tokenCookie(cfg.AccessName, "", time.Time{}))
	http.SetCookie(w, h.tokenCookie(cfg.RefreshName, "", time.Time{}))
}
