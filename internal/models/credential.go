package models

// Credential holds a user's login and password hash. Exactly one per user,
// created at registration and never mutated. The unique index on Login is the
// real guard against duplicate registrations; the service-level existence
// check only exists for a friendlier error.
type Credential struct {
	UserID       uint   `gorm:"primaryKey" json:"user_id"`
	User         User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Login        string `gorm:"uniqueIndex;not null" json:"login"`
	PasswordHash []byte `gorm:"not null" json:"-"`
}
