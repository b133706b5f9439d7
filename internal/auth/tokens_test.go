package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func TestTokenCacheSweep(t *testing.T) {
	c := NewTokenCache()
	now := time.Now()

	c.Put("fresh", Grant{Token: &oauth2.Token{AccessToken: "a", Expiry: now.Add(time.Hour)}})
	c.Put("stale", Grant{Token: &oauth2.Token{AccessToken: "b", Expiry: now.Add(-sessionTTL - time.Hour)}})
	c.Put("recently-expired", Grant{Token: &oauth2.Token{AccessToken: "c", Expiry: now.Add(-time.Minute)}})
	c.Put("no-expiry", Grant{Token: &oauth2.Token{AccessToken: "d"}})

	removed := c.Sweep(now)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get("stale")
	assert.False(t, ok)
	_, ok = c.Get("recently-expired")
	assert.True(t, ok, "refreshable grants outlive their access token")
	_, ok = c.Get("no-expiry")
	assert.True(t, ok)
}

func TestTokenCacheDelete(t *testing.T) {
	c := NewTokenCache()
	c.Put("s1", Grant{Token: &oauth2.Token{AccessToken: "a"}})
	c.Delete("s1")
	_, ok := c.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
