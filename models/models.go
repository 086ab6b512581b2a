package models

import "time"

// Profile is the application-level user record. One row per account;
// is_admin separates staff from customers.
type Profile struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	FullName     string `gorm:"size:255" json:"full_name"`
	Phone        string `gorm:"size:64" json:"phone"`
	IsAdmin      bool   `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Booking statuses. The app only ever writes StatusPending; the others
// are set by back-office tooling and merely displayed here.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is a photoshoot request. Immutable once created; status moves
// past "pending" only through admin tooling outside this app.
type Booking struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProfileID   string    `gorm:"size:36;not null;index" json:"profile_id"`
	FullName    string    `gorm:"size:255;not null" json:"full_name"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	Phone       string    `gorm:"size:64;not null" json:"phone"`
	BookingDate string    `gorm:"size:10;not null" json:"booking_date"`
	BookingTime string    `gorm:"size:5;not null" json:"booking_time"`
	Reason      string    `gorm:"not null" json:"reason"`
	Status      string    `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is the metadata row for one uploaded object. The object itself
// lives in the storage bucket under FilePath; ThumbPath is a smaller
// rendition generated at upload time.
type Image struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	FilePath    string    `gorm:"size:512;not null" json:"file_path"`
	ThumbPath   string    `gorm:"size:512" json:"thumb_path"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `gorm:"size:36;not null;index" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Assignment grants one profile visibility into one image. There is no
// removal path; rows only accumulate.
type Assignment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ImageID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_images_image_profile" json:"image_id"`
	ProfileID  string    `gorm:"size:36;not null;uniqueIndex:idx_user_images_image_profile;index" json:"profile_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TableName keeps the join table under its historical name.
func (Assignment) TableName() string { return "user_images" }
