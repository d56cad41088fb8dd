// Package catalog manages the presentation catalog: the gallery card
// metadata and the validated timeline behind each card.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/naco0406/simplicity/internal/db"
	"github.com/naco0406/simplicity/internal/logger"
	"github.com/naco0406/simplicity/internal/models"
	"github.com/naco0406/simplicity/internal/timeline"
)

// Service provides catalog operations over the repository
type Service struct {
	repo *db.PresentationRepository
}

// NewService creates a catalog service
func NewService(repo *db.PresentationRepository) *Service {
	return &Service{repo: repo}
}

// List returns every presentation card
func (s *Service) List(ctx context.Context) ([]*models.Presentation, error) {
	return s.repo.List(ctx)
}

// Get returns one presentation by UUID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Presentation, error) {
	return s.repo.GetByID(ctx, id)
}

// GetTimeline loads a presentation and parses its timeline payload. A
// payload that fails validation surfaces the ValidationError unchanged so
// callers can distinguish "not found" from "unusable".
func (s *Service) GetTimeline(ctx context.Context, id uuid.UUID) (*models.Presentation, *timeline.Timeline, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	tl, err := timeline.Parse(p.Timeline)
	if err != nil {
		return nil, nil, err
	}

	return p, tl, nil
}

// Delete removes a presentation by UUID
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// seedEntry is the on-disk shape of one catalog seed file: the card
// metadata plus the embedded timeline payload
type seedEntry struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	Speaker     string          `json:"speaker"`
	Role        string          `json:"role"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Timeline    json.RawMessage `json:"timeline"`
}

// Seed imports every *.json file under dir into the catalog, replacing
// rows with matching slugs. Files whose timeline fails validation are
// skipped with a warning rather than aborting the whole import.
func (s *Service) Seed(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Log.Info().Str("dir", dir).Msg("No seed directory, skipping catalog seed")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read seed directory: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := s.seedFile(ctx, path); err != nil {
			logger.Log.Warn().Err(err).Str("file", path).Msg("Skipping seed file")
			continue
		}
		imported++
	}

	logger.Log.Info().Int("imported", imported).Str("dir", dir).Msg("Catalog seed complete")
	return imported, nil
}

func (s *Service) seedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var entry seedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("malformed seed file: %w", err)
	}
	if entry.Slug == "" {
		return fmt.Errorf("seed file has no slug")
	}
	if len(entry.Timeline) == 0 {
		return fmt.Errorf("seed file has no timeline")
	}

	// Validate up front so a broken timeline never reaches the catalog
	if _, err := timeline.Parse(entry.Timeline); err != nil {
		return err
	}

	p := models.NewPresentation(entry.Slug, entry.Title, entry.Timeline)
	p.Subtitle = entry.Subtitle
	p.Speaker = entry.Speaker
	p.Role = entry.Role
	p.Description = entry.Description
	p.Image = entry.Image

	return s.repo.Upsert(ctx, p)
}
