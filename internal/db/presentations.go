package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/naco0406/simplicity/internal/models"
)

// PresentationRepository provides database operations for the catalog
type PresentationRepository struct {
	db *DB
}

// NewPresentationRepository creates a new presentation repository
func NewPresentationRepository(db *DB) *PresentationRepository {
	return &PresentationRepository{db: db}
}

// Create inserts a presentation
func (r *PresentationRepository) Create(ctx context.Context, p *models.Presentation) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
		}
		return fmt.Errorf("failed to create presentation: %w", err)
	}
	return nil
}

// GetByID retrieves a presentation by its UUID
func (r *PresentationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Presentation, error) {
	var p models.Presentation
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPresentationNotFound, id)
		}
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}
	return &p, nil
}

// GetBySlug retrieves a presentation by its slug
func (r *PresentationRepository) GetBySlug(ctx context.Context, slug string) (*models.Presentation, error) {
	var p models.Presentation
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPresentationNotFound, slug)
		}
		return nil, fmt.Errorf("failed to get presentation: %w", err)
	}
	return &p, nil
}

// List returns every presentation ordered by creation time
func (r *PresentationRepository) List(ctx context.Context) ([]*models.Presentation, error) {
	var presentations []*models.Presentation
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&presentations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}
	return presentations, nil
}

// Upsert inserts a presentation or replaces the existing row with the
// same slug, used by catalog seeding
func (r *PresentationRepository) Upsert(ctx context.Context, p *models.Presentation) error {
	existing, err := r.GetBySlug(ctx, p.Slug)
	if err != nil {
		if errors.Is(err, ErrPresentationNotFound) {
			return r.Create(ctx, p)
		}
		return err
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update presentation: %w", err)
	}
	return nil
}

// Delete removes a presentation by UUID
func (r *PresentationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Presentation{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete presentation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPresentationNotFound, id)
	}
	return nil
}
