package models

import "time"

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRoles lists every role an account may hold.
var ValidRoles = []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"not null" json:"name"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	Photo                string     `gorm:"not null;default:default.jpg" json:"photo"`
	Role                 string     `gorm:"not null;default:user" json:"role"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `gorm:"not null;default:''" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"not null;default:true" json:"-"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issuance time. Users who never changed their password always
// return false.
func (user *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if user.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(*user.PasswordChangedAt)
}

// HasRole reports whether the user's role is in the given set.
func (user *User) HasRole(roles ...string) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// PublicProfile is the reduced author shape embedded into review responses.
type PublicProfile struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

func (user *User) Profile() PublicProfile {
	return PublicProfile{Name: user.Name, Photo: user.Photo}
}
