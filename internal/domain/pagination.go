package domain

import (
	"encoding/base64"
	"strconv"
)

// Page size bounds for audit listings. The portal renders these as HTML
// tables, so pages stay small.
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 500
)

// PageRequest selects one page of a local listing. PageToken is an opaque
// cursor handed out by a previous page; tokens ride in query strings, so
// the encoding is URL-safe.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset resolves the token to a row offset. An empty or garbled token
// means the first page; a stale token past the end simply yields no rows.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit clamps MaxResults to [1, MaxMaxResults], substituting the default
// when unset.
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	}
	return p.MaxResults
}

// EncodePageToken wraps a row offset in an opaque cursor. Offset zero is the
// first page and needs no token.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the cursor for the page after the current one, or
// "" when the listing is exhausted.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}
