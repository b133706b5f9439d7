// Package graph is a minimal client for the Microsoft Graph style directory
// API consumed by the portal: user profiles, listings, relationships, photos,
// verified domains, and the roaming-settings open extension.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dirportal/internal/domain"
)

// PageSize is the fixed page size used for user listings and direct-report
// lookups. Both surfaces share the constant so paging behaves identically.
const PageSize = 10

// maxPhotoBytes caps how much profile-photo data is read per request.
const maxPhotoBytes = 4 << 20

// Client talks to the remote directory API. It holds no token state; every
// call carries the delegated access token chosen by the caller.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a directory client for the given API root
// (e.g. "https://graph.microsoft.com/v1.0", no trailing slash).
func NewClient(baseURL string, httpc *http.Client, logger *slog.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		logger:  logger,
	}
}

// User fetches the core profile for ref, which is either a directory object
// id or the literal "me" (any case) for the signed-in user.
func (c *Client) User(ctx context.Context, token, ref string) (domain.DirectoryUser, error) {
	var u wireUser
	reqURL := c.baseURL + userPath(ref) + "?" + profileSelect().Encode()
	if err := c.do(ctx, token, http.MethodGet, reqURL, nil, &u); err != nil {
		return domain.DirectoryUser{}, err
	}
	return u.toDomain(), nil
}

// Users fetches the first page of the user listing, sorted by display name,
// projected to display name and id.
func (c *Client) Users(ctx context.Context, token string) (domain.UserPage, error) {
	q := url.Values{}
	q.Set("$select", "id,displayName")
	q.Set("$orderby", "displayName")
	q.Set("$top", strconv.Itoa(PageSize))
	return c.userPage(ctx, token, c.baseURL+"/users?"+q.Encode())
}

// UsersByLink fetches a follow-up listing page using a continuation link
// previously returned by the directory. The link is used verbatim; only its
// origin is checked against the configured directory host.
func (c *Client) UsersByLink(ctx context.Context, token, link string) (domain.UserPage, error) {
	if strings.TrimSpace(link) == "" {
		return domain.UserPage{}, domain.ErrValidation("page link is required")
	}
	if err := c.checkLink(link); err != nil {
		return domain.UserPage{}, err
	}
	return c.userPage(ctx, token, link)
}

// Manager fetches the manager relationship for the given user id. The result
// is a directory object of unknown kind; callers narrow it with AsUserRef.
func (c *Client) Manager(ctx context.Context, token, id string) (domain.DirectoryObject, error) {
	q := url.Values{}
	q.Set("$select", "id,displayName")
	var obj wireDirectoryObject
	reqURL := c.baseURL + "/users/" + url.PathEscape(id) + "/manager?" + q.Encode()
	if err := c.do(ctx, token, http.MethodGet, reqURL, nil, &obj); err != nil {
		return domain.DirectoryObject{}, err
	}
	return obj.toDomain(), nil
}

// DirectReports fetches all direct reports for the given user id, following
// continuation links until the listing is exhausted.
func (c *Client) DirectReports(ctx context.Context, token, id string) ([]domain.UserRef, error) {
	q := url.Values{}
	q.Set("$select", "id,displayName")
	q.Set("$top", strconv.Itoa(PageSize))

	var out []domain.UserRef
	next := c.baseURL + "/users/" + url.PathEscape(id) + "/directReports?" + q.Encode()
	for next != "" {
		var page wireUserList
		if err := c.do(ctx, token, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for i := range page.Value {
			out = append(out, domain.UserRef{ID: page.Value[i].ID, DisplayName: page.Value[i].DisplayName})
		}
		next = page.NextLink
		if next != "" {
			if err := c.checkLink(next); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Photo fetches the full-size profile photo for the given user id. A missing
// photo surfaces as a NotFoundError.
func (c *Client) Photo(ctx context.Context, token, id string) (domain.Photo, error) {
	reqURL := c.baseURL + "/users/" + url.PathEscape(id) + "/photo/$value"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("build photo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return domain.Photo{}, c.readError(resp, "GET photo")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return domain.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return domain.Photo{ContentType: contentType, Data: data}, nil
}

// CreateUser creates a directory user. The account is enabled and the user
// must change the initial password at next sign-in.
func (c *Client) CreateUser(ctx context.Context, token string, nu domain.NewUser) (domain.DirectoryUser, error) {
	body := wireNewUser{
		AccountEnabled:    true,
		DisplayName:       nu.DisplayName,
		MailNickname:      nu.MailNickname,
		UserPrincipalName: nu.UserPrincipalName,
		PasswordProfile: wirePasswordProfile{
			Password:                      nu.Password,
			ForceChangePasswordNextSignIn: true,
		},
	}
	if nu.MobilePhone != "" {
		body.MobilePhone = &nu.MobilePhone
	}

	var created wireUser
	if err := c.do(ctx, token, http.MethodPost, c.baseURL+"/users", body, &created); err != nil {
		return domain.DirectoryUser{}, err
	}
	return created.toDomain(), nil
}

// UpdateUser applies a partial update to the given user. Only the mobile
// phone travels; an empty value clears the stored number.
func (c *Client) UpdateUser(ctx context.Context, token, id string, patch domain.UserPatch) error {
	body := wireUserPatch{}
	if patch.MobilePhone != "" {
		body.MobilePhone = &patch.MobilePhone
	}
	return c.do(ctx, token, http.MethodPatch, c.baseURL+"/users/"+url.PathEscape(id), body, nil)
}

// DeleteUser removes the given user from the directory.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodDelete, c.baseURL+"/users/"+url.PathEscape(id), nil, nil)
}

// VerifiedDomains fetches the organization's verified domains.
func (c *Client) VerifiedDomains(ctx context.Context, token string) ([]domain.VerifiedDomain, error) {
	q := url.Values{}
	q.Set("$select", "verifiedDomains")
	var orgs wireOrganizationList
	if err := c.do(ctx, token, http.MethodGet, c.baseURL+"/organization?"+q.Encode(), nil, &orgs); err != nil {
		return nil, err
	}

	var out []domain.VerifiedDomain
	for i := range orgs.Value {
		for _, d := range orgs.Value[i].VerifiedDomains {
			out = append(out, domain.VerifiedDomain{Name: d.Name, Default: d.IsDefault})
		}
	}
	return out, nil
}

// RoamingSettings reads the named settings extension for ref ("me" or an id).
// A missing document surfaces as a NotFoundError.
func (c *Client) RoamingSettings(ctx context.Context, token, ref string) (domain.RoamingSettings, error) {
	var ext wireExtension
	if err := c.do(ctx, token, http.MethodGet, c.extensionURL(ref), nil, &ext); err != nil {
		return domain.RoamingSettings{}, err
	}
	return ext.toDomain(), nil
}

// CreateRoamingSettings adds the named settings extension. The directory
// rejects the call with a conflict when the document already exists.
func (c *Client) CreateRoamingSettings(ctx context.Context, token, ref string, s domain.RoamingSettings) error {
	body := wireExtension{
		ODataType:     openTypeExtension,
		ExtensionName: domain.RoamingSettingsExtensionName,
		Theme:         s.Theme,
		Color:         s.Color,
		Language:      s.Language,
	}
	reqURL := c.baseURL + userPath(ref) + "/extensions"
	return c.do(ctx, token, http.MethodPost, reqURL, body, nil)
}

// ReplaceRoamingSettings replaces the named settings extension wholesale.
// This is a distinct operation from CreateRoamingSettings: it requires the
// document to exist and overwrites the full property set.
func (c *Client) ReplaceRoamingSettings(ctx context.Context, token, ref string, s domain.RoamingSettings) error {
	body := wireExtension{
		ODataType: openTypeExtension,
		Theme:     s.Theme,
		Color:     s.Color,
		Language:  s.Language,
	}
	return c.do(ctx, token, http.MethodPatch, c.extensionURL(ref), body, nil)
}

// DeleteRoamingSettings removes the named settings extension.
func (c *Client) DeleteRoamingSettings(ctx context.Context, token, ref string) error {
	return c.do(ctx, token, http.MethodDelete, c.extensionURL(ref), nil, nil)
}

func (c *Client) extensionURL(ref string) string {
	return c.baseURL + userPath(ref) + "/extensions/" + url.PathEscape(domain.RoamingSettingsExtensionName)
}

func (c *Client) userPage(ctx context.Context, token, reqURL string) (domain.UserPage, error) {
	var list wireUserList
	if err := c.do(ctx, token, http.MethodGet, reqURL, nil, &list); err != nil {
		return domain.UserPage{}, err
	}

	page := domain.UserPage{NextLink: list.NextLink}
	page.Users = make([]domain.UserRef, 0, len(list.Value))
	for i := range list.Value {
		page.Users = append(page.Users, domain.UserRef{ID: list.Value[i].ID, DisplayName: list.Value[i].DisplayName})
	}
	return page, nil
}

// do executes one request against the directory and decodes the JSON response
// into out when out is non-nil. Non-2xx responses map onto domain errors.
func (c *Client) do(ctx context.Context, token, method, reqURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("directory %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("directory request", "method", method, "path", req.URL.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.readError(resp, method+" "+req.URL.Path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}

// readError decodes an OData error body and maps it onto the domain error
// taxonomy by HTTP status.
func (c *Client) readError(resp *http.Response, op string) error {
	var body wireError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(raw, &body)

	code := body.Err.Code
	message := strings.TrimSpace(body.Err.Message)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound("%s", message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAccessDenied("%s", message)
	case http.StatusBadRequest:
		return domain.ErrValidation("%s", message)
	case http.StatusConflict:
		return domain.ErrConflict("%s", message)
	}
	if code != "" {
		return fmt.Errorf("directory %s: %s (%s)", op, message, code)
	}
	return fmt.Errorf("directory %s: status %d: %s", op, resp.StatusCode, message)
}

// checkLink ensures a continuation link points back at the configured
// directory origin before it is fetched.
func (c *Client) checkLink(link string) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	lu, err := url.Parse(link)
	if err != nil || lu.Scheme != base.Scheme || lu.Host != base.Host {
		return domain.ErrValidation("continuation link does not match the directory host")
	}
	return nil
}

// userPath maps a user reference onto its API path, with the literal "me"
// routed to the signed-in-user endpoint.
func userPath(ref string) string {
	if domain.IsMeRef(ref) {
		return "/me"
	}
	return "/users/" + url.PathEscape(strings.TrimSpace(ref))
}

func profileSelect() url.Values {
	q := url.Values{}
	q.Set("$select", "id,displayName,userPrincipalName,mail,mobilePhone,accountEnabled")
	return q
}
