package services

import (
	"errors"
	"strings"
	"time"

	"github.com/marloweh/trailbook/internal/models"
	"github.com/marloweh/trailbook/internal/security"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordHashCost = 12
	resetTokenBytes  = 32
	// ResetTokenTTL bounds how long a password-reset token stays usable.
	ResetTokenTTL = 10 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or has expired")
)

type AuthUserStore interface {
	FindByID(userID uint) (models.User, error)
	FindActiveByEmail(email string) (models.User, error)
	FindByResetTokenHash(tokenHash string, now time.Time) (models.User, error)
	Create(user *models.User) error
	Save(user *models.User) error
	UpdateByID(userID uint, updates map[string]any) error
}

type AuthService struct {
	users AuthUserStore
}

func NewAuthService(users AuthUserStore) *AuthService {
	return &AuthService{users: users}
}

// NormalizeEmail is the canonical form an email is stored and matched under.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a new basic-role identity. The plaintext password is hashed
// before anything is persisted.
func (service *AuthService) Signup(name string, email string, password string) (models.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: string(passwordHash),
		Photo:        "default.jpg",
		Role:         models.RoleUser,
		Active:       true,
	}
	if err := service.users.Create(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate resolves an active identity by email and verifies the
// password against the stored hash. Unknown email and bad password are
// indistinguishable to the caller.
func (service *AuthService) Authenticate(email string, password string) (models.User, error) {
	user, err := service.users.FindActiveByEmail(NormalizeEmail(email))
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// VerifyPassword checks a candidate password against an already-resolved
// identity.
func (service *AuthService) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// ChangePassword re-hashes and stores a new password, clears any pending
// reset token, and advances the password-changed timestamp. The timestamp is
// backdated one second so a session token issued in the same second as the
// change still fails verification.
func (service *AuthService) ChangePassword(user *models.User, newPassword string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordHashCost)
	if err != nil {
		return err
	}

	changedAt := time.Now().Add(-time.Second)
	user.PasswordHash = string(passwordHash)
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	return service.users.Save(user)
}

// StartPasswordReset generates a one-time reset token for the identity
// registered under the given email, persisting only its hash and expiry.
// The raw token is returned for out-of-band delivery.
func (service *AuthService) StartPasswordReset(email string) (models.User, string, error) {
	user, err := service.users.FindActiveByEmail(NormalizeEmail(email))
	if err != nil {
		return models.User{}, "", err
	}

	rawToken, tokenHash, err := security.NewResetToken(resetTokenBytes)
	if err != nil {
		return models.User{}, "", err
	}

	expires := time.Now().Add(ResetTokenTTL)
	if err := service.users.UpdateByID(user.ID, map[string]any{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expires,
	}); err != nil {
		return models.User{}, "", err
	}

	user.PasswordResetToken = tokenHash
	user.PasswordResetExpires = &expires
	return user, rawToken, nil
}

// ClearPasswordReset discards a pending reset token, e.g. after the delivery
// collaborator failed and the token must not stay usable.
func (service *AuthService) ClearPasswordReset(userID uint) error {
	return service.users.UpdateByID(userID, map[string]any{
		"password_reset_token":   "",
		"password_reset_expires": nil,
	})
}

// FinishPasswordReset redeems a raw reset token. The stored hash must match
// and the expiry must not have passed.
func (service *AuthService) FinishPasswordReset(rawToken string, newPassword string) (models.User, error) {
	user, err := service.users.FindByResetTokenHash(security.HashToken(rawToken), time.Now())
	if err != nil {
		return models.User{}, ErrResetTokenInvalid
	}

	if err := service.ChangePassword(&user, newPassword); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (service *AuthService) FindByID(userID uint) (models.User, error) {
	return service.users.FindByID(userID)
}
