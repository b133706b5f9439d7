package domain

import (
	"fmt"
	"strings"
)

// DirectoryObject kind discriminators as reported by the remote directory.
const (
	KindUser  = "#microsoft.graph.user"
	KindGroup = "#microsoft.graph.group"
)

// UserRef is the minimal displayName+id projection used by listings and
// relationship lookups.
type UserRef struct {
	ID          string
	DisplayName string
}

// DirectoryUser is the core profile shape shown on user detail pages.
type DirectoryUser struct {
	ID                string
	DisplayName       string
	UserPrincipalName string
	Mail              string
	MobilePhone       string
	AccountEnabled    bool
}

// NewUser carries the fields sent to the directory when creating a user.
// The principal name is computed by the caller; the directory rejects
// malformed values.
type NewUser struct {
	DisplayName       string
	MailNickname      string
	UserPrincipalName string
	Password          string
	MobilePhone       string
}

// UserPatch carries the mutable fields for a user update. Only the mobile
// phone is editable through the portal.
type UserPatch struct {
	MobilePhone string
}

// UserPage is one page of directory users plus the opaque continuation link
// to the next page. NextLink is empty on the final page and must be round-
// tripped verbatim; its contents are owned by the remote directory.
type UserPage struct {
	Users    []UserRef
	NextLink string
}

// Photo is a raw profile photo as served by the directory.
type Photo struct {
	ContentType string
	Data        []byte
}

// VerifiedDomain is a domain registered for the organization. Default marks
// the tenant's primary domain.
type VerifiedDomain struct {
	Name    string
	Default bool
}

// DirectoryObject is a directory entity whose concrete kind is only known at
// runtime. Relationship lookups (manager) may yield users, groups, or other
// object kinds; callers must narrow explicitly before treating the result as
// a user.
type DirectoryObject struct {
	Kind        string
	ID          string
	DisplayName string
}

// AsUserRef narrows the object to a user reference. It fails when the object
// is some other directory kind.
func (o DirectoryObject) AsUserRef() (UserRef, error) {
	if !strings.EqualFold(o.Kind, KindUser) {
		return UserRef{}, fmt.Errorf("directory object %q is %q, not a user", o.ID, o.Kind)
	}
	return UserRef{ID: o.ID, DisplayName: o.DisplayName}, nil
}

// IsMeRef reports whether ref addresses the signed-in user. The comparison is
// case-insensitive so "me", "Me", and "ME" all resolve to the current user.
func IsMeRef(ref string) bool {
	return strings.EqualFold(strings.TrimSpace(ref), "me")
}
