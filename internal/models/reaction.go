package models

// ReactionKind is stored as plain text in the database.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Reaction records one like or dislike per (post, user) pair. The composite
// primary key enforces at most one reaction per user per post.
type Reaction struct {
	PostID uint         `gorm:"primaryKey" json:"post_id"`
	Post   Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID uint         `gorm:"primaryKey" json:"user_id"`
	User   User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Kind   ReactionKind `gorm:"size:20;not null" json:"kind"`
}
