package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/raphaelgruber/moodon/internal/store"
)

// storedCookie is the persisted form of an http.Cookie.
type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// CookieJar persists API session cookies in the store. It implements
// client.CookieStore.
type CookieJar struct {
	store *store.Store
}

// NewCookieJar creates a store-backed cookie persister.
func NewCookieJar(st *store.Store) *CookieJar {
	return &CookieJar{store: st}
}

// LoadCookies returns the unexpired persisted cookies.
func (j *CookieJar) LoadCookies(ctx context.Context) []*http.Cookie {
	var stored []storedCookie
	if !j.store.GetJSON(ctx, store.KeyCookies, &stored) {
		return nil
	}
	now := time.Now()
	out := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if c.Name == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return out
}

// SaveCookies replaces the persisted cookies. An empty set removes the key.
func (j *CookieJar) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return j.store.Delete(ctx, store.KeyCookies)
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return j.store.SetJSON(ctx, store.KeyCookies, stored)
}
