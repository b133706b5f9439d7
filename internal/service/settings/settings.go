// Package settings manages the signed-in user's roaming-settings document,
// the open extension attached to their directory record. The document is
// absent until created, replaced wholesale on update, and removed wholesale
// on delete; there is no merge or upsert.
package settings

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

// Choices the portal's settings form offers. Stored values are whatever the
// caller submitted; validation compares case-insensitively.
var (
	Themes    = []string{"light", "dark"}
	Colors    = []string{"blue", "green", "purple", "red", "amber"}
	Languages = []string{"en-US", "de-DE", "fr-FR", "ja-JP", "pt-BR"}
)

const auditTarget = "extension:" + domain.RoamingSettingsExtensionName

// Service manages the roaming-settings document of the signed-in user.
type Service struct {
	client *graph.Client
	audit  *audit.Service
	logger *slog.Logger
}

func NewService(client *graph.Client, auditSvc *audit.Service, logger *slog.Logger) *Service {
	return &Service{client: client, audit: auditSvc, logger: logger}
}

// Get reads the signed-in user's settings document. The second return is
// false when the document has never been created; that is not an error.
func (s *Service) Get(ctx context.Context, token string) (domain.RoamingSettings, bool, error) {
	doc, err := s.client.RoamingSettings(ctx, token, "me")
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.RoamingSettings{}, false, nil
		}
		return domain.RoamingSettings{}, false, err
	}
	return doc, true, nil
}

// Create stores a new settings document. The remote directory rejects a
// second create for the same user with a conflict.
func (s *Service) Create(ctx context.Context, token string, doc domain.RoamingSettings) error {
	if err := Validate(doc); err != nil {
		return err
	}
	err := s.client.CreateRoamingSettings(ctx, token, "me", doc)
	s.audit.Record(ctx, "settings.create", auditTarget, err)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

// Replace overwrites the existing settings document wholesale. It is a
// distinct remote operation from Create and never falls back to one.
func (s *Service) Replace(ctx context.Context, token string, doc domain.RoamingSettings) error {
	if err := Validate(doc); err != nil {
		return err
	}
	err := s.client.ReplaceRoamingSettings(ctx, token, "me", doc)
	s.audit.Record(ctx, "settings.replace", auditTarget, err)
	if err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Delete removes the settings document. Deleting a document that does not
// exist succeeds: the user-visible outcome (no settings) already holds.
func (s *Service) Delete(ctx context.Context, token string) error {
	err := s.client.DeleteRoamingSettings(ctx, token, "me")
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		s.logger.Debug("settings already absent on delete")
		err = nil
	}
	s.audit.Record(ctx, "settings.delete", auditTarget, err)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}

// Validate checks the document fields against the offered choices.
func Validate(doc domain.RoamingSettings) error {
	if !member(Themes, doc.Theme) {
		return domain.ErrValidation("unknown theme %q", doc.Theme)
	}
	if !member(Colors, doc.Color) {
		return domain.ErrValidation("unknown color %q", doc.Color)
	}
	if !member(Languages, doc.Language) {
		return domain.ErrValidation("unknown language %q", doc.Language)
	}
	return nil
}

func member(allowed []string, v string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}
