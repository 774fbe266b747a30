package auth

import (
	"errors"
	"fmt"
	"sociallink/db"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrEmailRegistered = errors.New("email is already registered")

// Credential is only used by the local provider
type Credential struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt    int64
	Email        string `gorm:"type:varchar(150);not null;uniqueIndex"`
	PasswordHash string `gorm:"type:varchar(100);not null"`
}

// LocalProvider keeps bcrypt hashes in the database and issues its own tokens
type LocalProvider struct{}

func (p *LocalProvider) SignUp(email, password string) (Identity, error) {
	if err := checkPassword(password); err != nil {
		return Identity{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}
	credential := Credential{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
	}
	if err = db.Instance.Create(&credential).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return Identity{}, ErrEmailRegistered
		}
		return Identity{}, err
	}
	return p.identity(&credential)
}

func (p *LocalProvider) SignIn(email, password string) (Identity, error) {
	var credential Credential
	err := db.Instance.First(&credential, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return p.identity(&credential)
}

func (p *LocalProvider) Delete(id string) error {
	return db.Instance.Delete(&Credential{}, "id = ?", id).Error
}

func (p *LocalProvider) identity(c *Credential) (Identity, error) {
	token, expires, err := IssueToken(c.ID, c.Email)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: c.ID, Email: c.Email, AccessToken: token, ExpiresAt: expires}, nil
}
