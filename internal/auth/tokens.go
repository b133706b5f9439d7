package auth

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Grant is one cached delegated grant: the token pair plus the scopes it was
// granted with. Scopes are tracked locally so scope checks never cost a
// network round trip.
type Grant struct {
	Token  *oauth2.Token
	Scopes []string
}

// TokenCache holds grants per session id, server-side only. A process
// restart signs everyone out, which is acceptable for a portal fronted by a
// single instance.
type TokenCache struct {
	mu     sync.Mutex
	grants map[string]Grant
}

func NewTokenCache() *TokenCache {
	return &TokenCache{grants: map[string]Grant{}}
}

func (c *TokenCache) Get(sessionID string) (Grant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.grants[sessionID]
	return g, ok
}

func (c *TokenCache) Put(sessionID string, g Grant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[sessionID] = g
}

func (c *TokenCache) Delete(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grants, sessionID)
}

// Sweep drops grants whose access token expired longer ago than the session
// lifetime; their sessions cannot present a valid cookie anymore. Returns how
// many grants were removed.
func (c *TokenCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, g := range c.grants {
		expiry := g.Token.Expiry
		if expiry.IsZero() {
			continue
		}
		if now.Sub(expiry) > sessionTTL {
			delete(c.grants, id)
			removed++
		}
	}
	return removed
}

// Len reports how many grants are cached.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.grants)
}
