// Package directory orchestrates reads and mutations of directory user
// records over the remote API. Callers supply a delegated access token per
// operation; the service owns validation, graceful degradation of the
// organizational lookups, and audit recording for mutations.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dirportal/internal/domain"
	"dirportal/internal/graph"
	"dirportal/internal/service/audit"
)

// Service answers user-record operations for the web handlers.
type Service struct {
	client *graph.Client
	audit  *audit.Service
	logger *slog.Logger
}

func NewService(client *graph.Client, auditSvc *audit.Service, logger *slog.Logger) *Service {
	return &Service{client: client, audit: auditSvc, logger: logger}
}

// DetailOptions steer how much of the organizational context Detail loads.
type DetailOptions struct {
	// Elevated marks the administrative flow: a denied relationship lookup
	// is an error there, not a consent hint.
	Elevated bool
	// SkipOrg skips photo, manager, and report lookups entirely. Consumer
	// accounts have no organization to ask about.
	SkipOrg bool
}

// Detail is one user's profile with whatever organizational context could be
// loaded. Absent parts stay nil/empty; NeedsConsent reports that a lookup
// was refused and wider scopes would help.
type Detail struct {
	User         domain.DirectoryUser
	Photo        *domain.Photo
	Manager      *domain.UserRef
	Reports      []domain.UserRef
	NeedsConsent bool
}

// Detail loads the profile for ref ("me" or an object id) plus photo,
// manager, and direct reports. The profile itself must load. A missing photo,
// manager, or report list is normal and leaves the field empty; a denied
// manager lookup outside the elevated flow sets NeedsConsent and keeps what
// already loaded instead of failing the page. Every other lookup failure
// surfaces to the caller.
func (s *Service) Detail(ctx context.Context, token, ref string, opts DetailOptions) (Detail, error) {
	if strings.TrimSpace(ref) == "" {
		return Detail{}, domain.ErrValidation("user reference is required")
	}

	user, err := s.client.User(ctx, token, ref)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{User: user}
	if opts.SkipOrg {
		return d, nil
	}

	photo, err := s.client.Photo(ctx, token, user.ID)
	switch classify(err) {
	case lookupOK:
		d.Photo = &photo
	case lookupAbsent:
	default:
		return Detail{}, err
	}

	mgr, err := s.client.Manager(ctx, token, user.ID)
	switch classify(err) {
	case lookupOK:
		if ref, refErr := mgr.AsUserRef(); refErr == nil {
			d.Manager = &ref
		} else {
			// A non-user manager (group, contact) has no profile page here.
			s.logger.Debug("manager is not a user", "user", user.ID, "kind", mgr.Kind)
		}
	case lookupAbsent:
	case lookupDenied:
		if opts.Elevated {
			return Detail{}, err
		}
		// The reports lookup would hit the same denial, so stop here and
		// render the page with a consent hint.
		d.NeedsConsent = true
		return d, nil
	default:
		return Detail{}, err
	}

	reports, err := s.client.DirectReports(ctx, token, user.ID)
	switch classify(err) {
	case lookupOK:
		d.Reports = reports
	case lookupAbsent:
	default:
		return Detail{}, err
	}
	return d, nil
}

// List returns the first page of the directory's user listing.
func (s *Service) List(ctx context.Context, token string) (domain.UserPage, error) {
	return s.client.Users(ctx, token)
}

// Page returns a follow-up listing page for a continuation link handed out
// by a previous List or Page call.
func (s *Service) Page(ctx context.Context, token, link string) (domain.UserPage, error) {
	return s.client.UsersByLink(ctx, token, link)
}

// VerifiedDomains lists the tenant's verified domains for the create form.
func (s *Service) VerifiedDomains(ctx context.Context, token string) ([]domain.VerifiedDomain, error) {
	return s.client.VerifiedDomains(ctx, token)
}

// CreateRequest carries the create-user form. The principal name is the
// user name and the chosen domain joined verbatim.
type CreateRequest struct {
	DisplayName string
	UserName    string
	DomainName  string
	Password    string
	MobilePhone string
}

// PrincipalName is the sign-in name the new account will get.
func (r CreateRequest) PrincipalName() string {
	return r.UserName + r.DomainName
}

// Validate checks the form fields before anything leaves the process.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.DisplayName) == "" {
		return domain.ErrValidation("display name is required")
	}
	if strings.TrimSpace(r.UserName) == "" {
		return domain.ErrValidation("user name is required")
	}
	if strings.ContainsAny(r.UserName, "@ ") {
		return domain.ErrValidation("user name must not contain '@' or spaces")
	}
	if r.DomainName == "" {
		return domain.ErrValidation("domain is required")
	}
	if !strings.HasPrefix(r.DomainName, "@") {
		return domain.ErrValidation("domain must start with '@'")
	}
	if len(r.Password) < 8 {
		return domain.ErrValidation("password must be at least 8 characters")
	}
	return nil
}

// Create adds a user to the directory and audits the outcome.
func (s *Service) Create(ctx context.Context, token string, req CreateRequest) (domain.DirectoryUser, error) {
	if err := req.Validate(); err != nil {
		return domain.DirectoryUser{}, err
	}

	created, err := s.client.CreateUser(ctx, token, domain.NewUser{
		DisplayName:       req.DisplayName,
		MailNickname:      req.UserName,
		UserPrincipalName: req.PrincipalName(),
		Password:          req.Password,
		MobilePhone:       req.MobilePhone,
	})
	s.audit.Record(ctx, "user.create", "user:"+req.PrincipalName(), err)
	if err != nil {
		return domain.DirectoryUser{}, fmt.Errorf("create user %s: %w", req.PrincipalName(), err)
	}
	s.logger.Info("user created", "principal", created.UserPrincipalName, "id", created.ID)
	return created, nil
}

// UpdatePhone changes a user's mobile phone. An empty phone clears it.
func (s *Service) UpdatePhone(ctx context.Context, token, userID, phone string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrValidation("user id is required")
	}

	err := s.client.UpdateUser(ctx, token, userID, domain.UserPatch{MobilePhone: strings.TrimSpace(phone)})
	s.audit.Record(ctx, "user.update", "user:"+userID, err)
	if err != nil {
		return fmt.Errorf("update user %s: %w", userID, err)
	}
	return nil
}

// Delete removes a user from the directory.
func (s *Service) Delete(ctx context.Context, token, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrValidation("user id is required")
	}

	err := s.client.DeleteUser(ctx, token, userID)
	s.audit.Record(ctx, "user.delete", "user:"+userID, err)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.logger.Info("user deleted", "id", userID)
	return nil
}

type lookupOutcome int

const (
	lookupOK lookupOutcome = iota
	lookupAbsent
	lookupDenied
	lookupFailed
)

// classify buckets a relationship-lookup error: absent data and permission
// denials each get their own handling, anything else is a plain failure.
func classify(err error) lookupOutcome {
	if err == nil {
		return lookupOK
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return lookupAbsent
	}
	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		return lookupDenied
	}
	return lookupFailed
}
