package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// GrantedScopes extracts the scopes actually granted with a token: the token
// response's scope field when present, otherwise the access token's scp
// claim. The claim is read without signature verification; the scopes are a
// local hint only and the directory enforces them authoritatively.
func GrantedScopes(tok *oauth2.Token) []string {
	if s, ok := tok.Extra("scope").(string); ok && s != "" {
		return strings.Fields(s)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		if scp, ok := claims["scp"].(string); ok {
			return strings.Fields(scp)
		}
	}
	return nil
}

// missingScopes reports which required scopes the granted set lacks. Scope
// names compare case-insensitively.
func missingScopes(granted, required []string) []string {
	var missing []string
	for _, want := range required {
		found := false
		for _, have := range granted {
			if strings.EqualFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}

// unionScopes merges scope lists preserving first-seen order, deduplicating
// case-insensitively.
func unionScopes(sets ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, set := range sets {
		for _, s := range set {
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}
