package models

import (
	"time"
)

// Post carries denormalized reaction counters. LikesQuantity and
// DislikesQuantity must equal the count of matching Reaction rows at every
// commit boundary; they are only ever updated in the same transaction as the
// reaction row mutation.
type Post struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Text             string    `gorm:"type:text;not null" json:"text"`
	ImageURL         string    `gorm:"not null" json:"image_url"`
	LikesQuantity    int       `gorm:"not null;default:0" json:"likes_quantity"`
	DislikesQuantity int       `gorm:"not null;default:0" json:"dislikes_quantity"`
}
