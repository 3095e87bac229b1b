package domain

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	GenderPreferNotSay = "PreferNotSay"
	GenderMale         = "Male"
	GenderFemale       = "Female"
)

const BioMaxLength = 125

var AccountTypes = []string{
	"Artist", "Entrepreneur", "Doctor", "Engineer", "Influencer",
	"Designer", "Photographer", "Writer", "Musician", "Chef",
	"Athlete", "Teacher", "Scientist", "Lawyer", "Student",
	"Investor", "Freelancer", "Journalist", "Consultant", "Traveler",
}

type Profile struct {
	Rev          string     `json:"_rev,omitempty"`
	Kind         string     `json:"kind"`
	UserID       string     `json:"user_id"`
	Bio          string     `json:"bio"`
	Gender       string     `json:"gender"`
	AccountType  string     `json:"account_type"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	ProfileImage string     `json:"profile_image"`
	IsVerified   bool       `json:"is_verified"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewProfile(userID string) *Profile {
	return &Profile{
		Kind:      KindProfile,
		UserID:    userID,
		Gender:    GenderPreferNotSay,
		UpdatedAt: time.Now(),
	}
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	Bio         *string `json:"bio" validate:"omitempty,max=125"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=PreferNotSay Male Female"`
	AccountType *string `json:"account_type" validate:"omitempty,account_type"`
}

type ProfileResponse struct {
	User           *UserResponse `json:"user"`
	Bio            string        `json:"bio"`
	Gender         string        `json:"gender"`
	AccountType    string        `json:"account_type"`
	BirthDate      *time.Time    `json:"birth_date,omitempty"`
	ProfileImage   string        `json:"profile_image"`
	IsVerified     bool          `json:"is_verified"`
	IsFollowing    bool          `json:"is_following"`
	PostsCount     int           `json:"posts_count"`
	FollowersCount int           `json:"followers_count"`
	FollowingCount int           `json:"following_count"`
}

// NewValidator returns a validator with the Photon-specific tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || slices.Contains(AccountTypes, s)
	})
	return v
}
