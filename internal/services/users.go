package services

import (
	"pulsefeed/internal/models"
	"pulsefeed/internal/utils"

	"gorm.io/gorm"
)

type UserService struct {
	tx   *gorm.DB
	hash utils.HashParams
}

func NewUserService(tx *gorm.DB, hash utils.HashParams) *UserService {
	return &UserService{tx: tx, hash: hash}
}

// RegisterNew creates a user with role "user" and its credentials in the
// current transaction. A taken login fails the whole registration; the
// enclosing transaction rolls the user row back with it.
func (s *UserService) RegisterNew(firstName, lastName, login, password string) (models.User, error) {
	user, err := s.CreateUser(firstName, lastName, models.RoleUser)
	if err != nil {
		return models.User{}, err
	}
	if err := NewAuthService(s.tx, s.hash).CreateCredentials(user.ID, login, password); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) CreateUser(firstName, lastName string, role models.Role) (models.User, error) {
	user := models.User{FirstName: firstName, LastName: lastName, Role: role}
	if err := s.tx.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}
