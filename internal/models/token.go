package models

// Token is a user's current opaque auth token. The user id is the primary
// key, so a user holds at most one live token: logging in again replaces it.
type Token struct {
	UserID uint   `gorm:"primaryKey" json:"user_id"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token  string `gorm:"uniqueIndex;not null" json:"token"`
}
