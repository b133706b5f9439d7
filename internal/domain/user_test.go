package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryObject_AsUserRef(t *testing.T) {
	tests := []struct {
		name    string
		obj     DirectoryObject
		want    UserRef
		wantErr bool
	}{
		{
			name: "user object narrows",
			obj:  DirectoryObject{Kind: KindUser, ID: "u1", DisplayName: "Alex Wilber"},
			want: UserRef{ID: "u1", DisplayName: "Alex Wilber"},
		},
		{
			name: "kind comparison ignores case",
			obj:  DirectoryObject{Kind: "#Microsoft.Graph.User", ID: "u2", DisplayName: "Megan Bowen"},
			want: UserRef{ID: "u2", DisplayName: "Megan Bowen"},
		},
		{
			name:    "group object does not narrow",
			obj:     DirectoryObject{Kind: KindGroup, ID: "g1", DisplayName: "Sales"},
			wantErr: true,
		},
		{
			name:    "unknown kind does not narrow",
			obj:     DirectoryObject{Kind: "#microsoft.graph.device", ID: "d1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := tt.obj.AsUserRef()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestIsMeRef(t *testing.T) {
	assert.True(t, IsMeRef("me"))
	assert.True(t, IsMeRef("Me"))
	assert.True(t, IsMeRef("ME"))
	assert.True(t, IsMeRef("  me  "))
	assert.False(t, IsMeRef(""))
	assert.False(t, IsMeRef("meg"))
	assert.False(t, IsMeRef("48d31887-5fad-4d73-a9f5-3c356e68a038"))
}

func TestErrorConstructors(t *testing.T) {
	var notFound *NotFoundError
	require.True(t, errors.As(ErrNotFound("user %q not found", "u1"), &notFound))
	assert.Equal(t, `user "u1" not found`, notFound.Error())

	var denied *AccessDeniedError
	require.True(t, errors.As(ErrAccessDenied("no read permission"), &denied))

	var consent *ConsentError
	require.True(t, errors.As(ErrConsent("User.ReadWrite.All", "Directory.AccessAsUser.All"), &consent))
	assert.Equal(t, []string{"User.ReadWrite.All", "Directory.AccessAsUser.All"}, consent.Missing)
	assert.Contains(t, consent.Error(), "User.ReadWrite.All")

	assert.Equal(t, "consent required", ErrConsent().Error())
}
