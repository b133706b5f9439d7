package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGrantedScopes(t *testing.T) {
	t.Run("from token response scope field", func(t *testing.T) {
		tok := (&oauth2.Token{AccessToken: "opaque"}).WithExtra(map[string]any{
			"scope": "openid User.Read User.ReadBasic.All",
		})
		assert.Equal(t, []string{"openid", "User.Read", "User.ReadBasic.All"}, GrantedScopes(tok))
	})

	t.Run("falls back to the scp claim", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"scp": "User.Read User.ReadWrite",
		}).SignedString([]byte("irrelevant"))
		require.NoError(t, err)

		assert.Equal(t, []string{"User.Read", "User.ReadWrite"}, GrantedScopes(&oauth2.Token{AccessToken: raw}))
	})

	t.Run("opaque token without scope field", func(t *testing.T) {
		assert.Nil(t, GrantedScopes(&oauth2.Token{AccessToken: "opaque"}))
	})
}

func TestMissingScopes(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required []string
		want     []string
	}{
		{"all present", []string{"User.Read", "User.ReadBasic.All"}, []string{"User.Read"}, nil},
		{"case-insensitive", []string{"user.read"}, []string{"User.Read"}, nil},
		{"partial", []string{"User.Read"}, []string{"User.Read", "User.ReadWrite.All"}, []string{"User.ReadWrite.All"}},
		{"empty grant", nil, []string{"User.Read"}, []string{"User.Read"}},
		{"nothing required", []string{"User.Read"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingScopes(tt.granted, tt.required))
		})
	}
}

func TestUnionScopes(t *testing.T) {
	got := unionScopes(
		[]string{"openid", "profile"},
		[]string{"User.Read", "openid"},
		[]string{"user.read", "User.ReadWrite.All", ""},
	)
	assert.Equal(t, []string{"openid", "profile", "User.Read", "User.ReadWrite.All"}, got)
}
