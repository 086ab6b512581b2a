package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tqpictures/studio/models"
)

type Profiles struct{ db *gorm.DB }

func NewProfiles(db *gorm.DB) *Profiles { return &Profiles{db: db} }

func (r *Profiles) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = strings.ToLower(p.Email)
	return r.db.WithContext(ctx).Create(p).Error
}

// UpsertByEmail creates the profile on first OAuth sign-in and refreshes
// the name on later ones. The admin flag is never touched here.
func (r *Profiles) UpsertByEmail(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = strings.ToLower(p.Email)
	return r.db.WithContext(ctx).
		Where("email = ?", p.Email).
		Assign(map[string]any{"full_name": p.FullName}).
		FirstOrCreate(p).Error
}

func (r *Profiles) ByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Profiles) ByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCustomers returns every non-admin profile, for the assignment picker.
func (r *Profiles) ListCustomers(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
