package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tqpictures/studio/models"
)

type Bookings struct{ db *gorm.DB }

func NewBookings(db *gorm.DB) *Bookings { return &Bookings{db: db} }

func (r *Bookings) Create(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Bookings) ListForProfile(ctx context.Context, profileID string) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Bookings) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	var out []models.Booking
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Bookings) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", models.StatusPending).
		Count(&n).Error
	return n, err
}
