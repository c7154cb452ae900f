package models

// Role is stored as plain text in the database.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Role      Role   `gorm:"size:20;default:'user';not null" json:"role"`
}
