package model

import "time"

// Profile is a library profile (account). Each profile has its own catalog
// rows, durable playback state and session coordinator.
type Profile struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName keeps the GORM table name in line with the raw SQL schema.
func (Profile) TableName() string {
	return "profiles"
}
