package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tqpictures/studio/models"
)

type Images struct{ db *gorm.DB }

func NewImages(db *gorm.DB) *Images { return &Images{db: db} }

// CreateWithAssignments inserts the metadata row and its assignment rows
// in one transaction, so a file either fully commits or leaves nothing.
func (r *Images) CreateWithAssignments(ctx context.Context, img *models.Image, profileIDs []string) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(img).Error; err != nil {
			return err
		}
		for _, pid := range profileIDs {
			a := models.Assignment{
				ID:         uuid.NewString(),
				ImageID:    img.ID,
				ProfileID:  pid,
				AssignedAt: time.Now(),
			}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAssigned returns only images that have an assignment row for the
// given profile, newest first.
func (r *Images) ListAssigned(ctx context.Context, profileID string) ([]models.Image, error) {
	var out []models.Image
	err := r.db.WithContext(ctx).
		Joins("JOIN user_images ON user_images.image_id = images.id").
		Where("user_images.profile_id = ?", profileID).
		Order("images.created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Images) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&n).Error
	return n, err
}
