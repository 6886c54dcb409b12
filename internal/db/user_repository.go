package db

import (
	"time"

	"github.com/marloweh/trailbook/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByID(userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindActiveByEmail looks up a non-deactivated account by its normalized
// email address.
func (repo *UserRepository) FindActiveByEmail(email string) (models.User, error) {
	var user models.User
	if err := repo.database.
		Where("email = ? AND active = ?", email, true).
		First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindByResetTokenHash matches a pending, unexpired password-reset token.
func (repo *UserRepository) FindByResetTokenHash(tokenHash string, now time.Time) (models.User, error) {
	var user models.User
	if err := repo.database.
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).
		First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}

func (repo *UserRepository) Save(user *models.User) error {
	return repo.database.Save(user).Error
}

func (repo *UserRepository) UpdateByID(userID uint, updates map[string]any) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// Deactivate soft-deletes an account. The record stays in the store but no
// longer authenticates.
func (repo *UserRepository) Deactivate(userID uint) error {
	return repo.database.Model(&models.User{}).Where("id = ?", userID).Update("active", false).Error
}

// ListByIDs returns users in the order of the given identifiers, skipping
// identifiers that no longer resolve.
func (repo *UserRepository) ListByIDs(userIDs []uint) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}

	loaded := make([]models.User, 0, len(userIDs))
	if err := repo.database.Where("id IN ?", userIDs).Find(&loaded).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.User, len(loaded))
	for _, user := range loaded {
		byID[user.ID] = user
	}

	ordered := make([]models.User, 0, len(userIDs))
	for _, userID := range userIDs {
		if user, exists := byID[userID]; exists {
			ordered = append(ordered, user)
		}
	}
	return ordered, nil
}

// MapByIDs returns the users keyed by identifier.
func (repo *UserRepository) MapByIDs(userIDs []uint) (map[uint]models.User, error) {
	users, err := repo.ListByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}
