package graph_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirportal/internal/domain"
	"dirportal/internal/graph"
	"dirportal/internal/graph/graphtest"
)

func newClient(t *testing.T, srv *graphtest.Server) *graph.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return graph.NewClient(srv.GraphURL(), nil, logger)
}

func TestClientUser(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	t.Run("by principal name", func(t *testing.T) {
		u, err := c.User(ctx, token, "dana@contoso.example")
		require.NoError(t, err)
		assert.Equal(t, "Dana Quinn", u.DisplayName)
		assert.Equal(t, "dana@contoso.example", u.UserPrincipalName)
		assert.Equal(t, "+1 206 555 0100", u.MobilePhone)
		assert.True(t, u.AccountEnabled)
	})

	t.Run("me resolves to the token subject", func(t *testing.T) {
		u, err := c.User(ctx, token, "Me")
		require.NoError(t, err)
		assert.Equal(t, srv.SignInUser().ID, u.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := c.User(ctx, token, "nobody@contoso.example")
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

func TestClientUsersPaging(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	first, err := c.Users(ctx, token)
	require.NoError(t, err)
	require.Len(t, first.Users, graph.PageSize)
	require.NotEmpty(t, first.NextLink)
	assert.Equal(t, "Avery Price", first.Users[0].DisplayName)

	second, err := c.UsersByLink(ctx, token, first.NextLink)
	require.NoError(t, err)
	assert.Len(t, second.Users, 4)
	assert.Empty(t, second.NextLink)

	// Names across both pages stay in display-name order.
	var names []string
	for _, u := range append(first.Users, second.Users...) {
		names = append(names, u.DisplayName)
	}
	assert.True(t, sort.StringsAreSorted(names), "pages continue the sorted listing: %v", names)
}

func TestClientUsersByLinkRejectsForeignHost(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	token := srv.AccessToken("dana@contoso.example")

	for _, link := range []string{
		"",
		"https://attacker.example/v1.0/users?$skiptoken=10",
		"ftp://" + srv.GraphURL(),
	} {
		_, err := c.UsersByLink(context.Background(), token, link)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, "link %q", link)
	}
}

func TestClientManager(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	dana, err := c.User(ctx, token, "dana@contoso.example")
	require.NoError(t, err)

	obj, err := c.Manager(ctx, token, dana.ID)
	require.NoError(t, err)
	ref, err := obj.AsUserRef()
	require.NoError(t, err)
	assert.Equal(t, "Morgan Yu", ref.DisplayName)

	morgan, err := c.User(ctx, token, "morgan@contoso.example")
	require.NoError(t, err)
	_, err = c.Manager(ctx, token, morgan.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestClientDirectReportsFollowsPages(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	dana, err := c.User(ctx, token, "dana@contoso.example")
	require.NoError(t, err)

	reports, err := c.DirectReports(ctx, token, dana.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 11, "eleven reports span two pages")
}

func TestClientPhoto(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	dana, err := c.User(ctx, token, "dana@contoso.example")
	require.NoError(t, err)

	photo, err := c.Photo(ctx, token, dana.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.NotEmpty(t, photo.Data)

	morgan, err := c.User(ctx, token, "morgan@contoso.example")
	require.NoError(t, err)
	_, err = c.Photo(ctx, token, morgan.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestClientCreateUser(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	created, err := c.CreateUser(ctx, token, domain.NewUser{
		DisplayName:       "Nico Vance",
		MailNickname:      "nico",
		UserPrincipalName: "nico@contoso.example",
		Password:          "Sw0rdfish!Sw0rdfish!",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.AccountEnabled)

	fetched, err := c.User(ctx, token, "nico@contoso.example")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = c.CreateUser(ctx, token, domain.NewUser{
		DisplayName:       "Nico Vance",
		MailNickname:      "nico",
		UserPrincipalName: "nico@contoso.example",
		Password:          "Sw0rdfish!Sw0rdfish!",
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestClientUpdateUser(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	dana, err := c.User(ctx, token, "dana@contoso.example")
	require.NoError(t, err)

	require.NoError(t, c.UpdateUser(ctx, token, dana.ID, domain.UserPatch{MobilePhone: "+1 206 555 0199"}))
	updated, err := c.User(ctx, token, dana.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1 206 555 0199", updated.MobilePhone)

	require.NoError(t, c.UpdateUser(ctx, token, dana.ID, domain.UserPatch{}))
	cleared, err := c.User(ctx, token, dana.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.MobilePhone, "empty patch clears the number")
}

func TestClientDeleteUser(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	avery, err := c.User(ctx, token, "avery@contoso.example")
	require.NoError(t, err)

	require.NoError(t, c.DeleteUser(ctx, token, avery.ID))
	_, err = c.User(ctx, token, avery.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	err = c.DeleteUser(ctx, token, avery.ID)
	require.ErrorAs(t, err, &nf)
}

func TestClientVerifiedDomains(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	token := srv.AccessToken("dana@contoso.example")

	domains, err := c.VerifiedDomains(context.Background(), token)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Equal(t, domain.VerifiedDomain{Name: "contoso.example", Default: true}, domains[0])
	assert.Equal(t, domain.VerifiedDomain{Name: "corp.contoso.example", Default: false}, domains[1])
}

func TestClientRoamingSettingsLifecycle(t *testing.T) {
	srv := graphtest.NewServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	token := srv.AccessToken("dana@contoso.example")

	// Dana starts without a document.
	_, err := c.RoamingSettings(ctx, token, "me")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	want := domain.RoamingSettings{Theme: "dark", Color: "green", Language: "en-US"}
	require.NoError(t, c.CreateRoamingSettings(ctx, token, "me", want))

	got, err := c.RoamingSettings(ctx, token, "me")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var conflict *domain.ConflictError
	err = c.CreateRoamingSettings(ctx, token, "me", want)
	require.ErrorAs(t, err, &conflict, "second create conflicts")

	require.NoError(t, c.ReplaceRoamingSettings(ctx, token, "me", domain.RoamingSettings{Theme: "light"}))
	got, err = c.RoamingSettings(ctx, token, "me")
	require.NoError(t, err)
	assert.Equal(t, domain.RoamingSettings{Theme: "light"}, got, "replace is wholesale")

	require.NoError(t, c.DeleteRoamingSettings(ctx, token, "me"))
	err = c.DeleteRoamingSettings(ctx, token, "me")
	require.ErrorAs(t, err, &nf)

	// Create and replace stay distinct verbs on the wire.
	var methods []string
	for _, req := range srv.Requests() {
		if req.Path == "/me/extensions" || req.Path == "/me/extensions/"+domain.RoamingSettingsExtensionName {
			methods = append(methods, req.Method)
		}
	}
	assert.Contains(t, methods, "POST")
	assert.Contains(t, methods, "PATCH")
}

func TestClientScopeDenied(t *testing.T) {
	srv := graphtest.NewServer(t)
	srv.Require("POST", "/users", "User.ReadWrite.All")
	c := newClient(t, srv)
	ctx := context.Background()

	nu := domain.NewUser{
		DisplayName:       "Riley Fox",
		MailNickname:      "riley",
		UserPrincipalName: "riley@contoso.example",
		Password:          "Sw0rdfish!Sw0rdfish!",
	}

	_, err := c.CreateUser(ctx, srv.AccessToken("dana@contoso.example", "User.Read"), nu)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	_, err = c.CreateUser(ctx, srv.AccessToken("dana@contoso.example", "User.ReadWrite.All"), nu)
	require.NoError(t, err)
}
