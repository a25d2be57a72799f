package user

import (
	"time"
)

// Role values carried in tokens.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a shopper or administrator account.
type User struct {
	ID           string   `gorm:"primaryKey;type:text"`
	Email        string   `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string   `gorm:"not null;type:text"`
	Role         string   `gorm:"not null;default:user;type:text"`
	Name         string   `gorm:"type:text"`
	Phone        string   `gorm:"type:text"`
	Gender       string   `gorm:"type:text"`
	City         string   `gorm:"type:text"`
	Pincode      string   `gorm:"type:text"`
	Interests    []string `gorm:"serializer:json"`
	Age          int
	Budget       int
	ProfileImage string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile holds the editable profile fields of a user.
type Profile struct {
	Name         string   `json:"name"`
	Phone        string   `json:"phone,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	City         string   `json:"city,omitempty"`
	Pincode      string   `json:"pincode,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Age          int      `json:"age,omitempty"`
	Budget       int      `json:"budget,omitempty"`
	ProfileImage string   `json:"profile_image,omitempty"`
}

// ProfileOf extracts the profile fields of u.
func ProfileOf(u User) Profile {
	return Profile{
		Name:         u.Name,
		Phone:        u.Phone,
		Gender:       u.Gender,
		City:         u.City,
		Pincode:      u.Pincode,
		Interests:    u.Interests,
		Age:          u.Age,
		Budget:       u.Budget,
		ProfileImage: u.ProfileImage,
	}
}

// Apply copies the profile fields onto u.
func (p Profile) Apply(u *User) {
	u.Name = p.Name
	u.Phone = p.Phone
	u.Gender = p.Gender
	u.City = p.City
	u.Pincode = p.Pincode
	u.Interests = p.Interests
	u.Age = p.Age
	u.Budget = p.Budget
	u.ProfileImage = p.ProfileImage
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims is the identity resolved from an access token. Handlers receive it
// explicitly and pass UserID down to user-scoped operations.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the claims carry the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
