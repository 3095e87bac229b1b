package domain

import "time"

const (
	KindUser    = "user"
	KindProfile = "profile"
	KindPost    = "post"
	KindSaved   = "saved"
	KindComment = "comment"
	KindFollow  = "follow"
)

type User struct {
	Rev         string    `json:"_rev,omitempty"`
	Kind        string    `json:"kind"`
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"password,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) Response() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsSuperuser: u.IsSuperuser,
	}
}

type UserResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
}

type RegisterResponse struct {
	Msg  string        `json:"msg"`
	User *UserResponse `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by login and refresh. The refresh token travels in a
// cookie, never in the body.
type Session struct {
	Access       string        `json:"access"`
	User         *UserResponse `json:"user"`
	RefreshToken string        `json:"-"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   string
	DeviceID string
}
