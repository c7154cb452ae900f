package services

import (
	"errors"

	"pulsefeed/internal/models"
	"pulsefeed/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrBadLoginCredentials deliberately does not distinguish an unknown
	// login from a wrong password.
	ErrBadLoginCredentials = errors.New("invalid login or password")
	ErrKnownLogin          = errors.New("login already taken")
	ErrUnknownToken        = errors.New("unknown auth token")
)

// AuthInfo is the caller's resolved identity. A missing or unknown token
// yields the guest identity, not an error.
type AuthInfo struct {
	IsAuthorized bool        `json:"is_authorized"`
	Role         models.Role `json:"role"`
	UserID       uint        `json:"user_id,omitempty"`
}

// Guest is the identity of an unauthenticated caller.
func Guest() AuthInfo {
	return AuthInfo{Role: models.RoleGuest}
}

type LoginResult struct {
	Token  string      `json:"token"`
	Role   models.Role `json:"role"`
	UserID uint        `json:"user_id"`
}

// AuthService runs every query on the transaction of the request that
// created it.
type AuthService struct {
	tx   *gorm.DB
	hash utils.HashParams
}

func NewAuthService(tx *gorm.DB, hash utils.HashParams) *AuthService {
	return &AuthService{tx: tx, hash: hash}
}

// Login matches the credential row on login and password hash, then issues a
// fresh token, replacing whatever token the user held before.
func (s *AuthService) Login(login, password string) (LoginResult, error) {
	var credential models.Credential
	err := s.tx.
		Where("login = ? AND password_hash = ?", login, s.hash.Hash(password)).
		First(&credential).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{}, ErrBadLoginCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	var user models.User
	if err := s.tx.First(&user, credential.UserID).Error; err != nil {
		return LoginResult{}, err
	}

	token := models.Token{UserID: user.ID, Token: uuid.NewString()}
	err = s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token"}),
	}).Create(&token).Error
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token.Token, Role: user.Role, UserID: user.ID}, nil
}

// Authorize resolves a token to the caller's identity. Unknown tokens are
// valid guests, not failures.
func (s *AuthService) Authorize(token string) (AuthInfo, error) {
	var row models.Token
	err := s.tx.Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Guest(), nil
	}
	if err != nil {
		return AuthInfo{}, err
	}

	var user models.User
	if err := s.tx.First(&user, row.UserID).Error; err != nil {
		return AuthInfo{}, err
	}
	return AuthInfo{IsAuthorized: true, Role: user.Role, UserID: user.ID}, nil
}

// Logout deletes the token row behind a presented token.
func (s *AuthService) Logout(token string) error {
	auth, err := s.Authorize(token)
	if err != nil {
		return err
	}
	if !auth.IsAuthorized {
		return ErrUnknownToken
	}
	return s.tx.Where("token = ?", token).Delete(&models.Token{}).Error
}

// CreateCredentials stores login credentials for a freshly created user.
func (s *AuthService) CreateCredentials(userID uint, login, password string) error {
	var count int64
	if err := s.tx.Model(&models.Credential{}).Where("login = ?", login).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrKnownLogin
	}

	credential := models.Credential{
		UserID:       userID,
		Login:        login,
		PasswordHash: s.hash.Hash(password),
	}
	err := s.tx.Create(&credential).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race past the existence check; the unique index on login
		// is the source of truth.
		return ErrKnownLogin
	}
	return err
}
