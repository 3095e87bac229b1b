package client

import "time"

// Identity is the signed-in user as views see it.
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (i Identity) Anonymous() bool { return i.ID == "" }

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser}
}

type Session struct {
	Access string `json:"access"`
	User   User   `json:"user"`
}

type Profile struct {
	User           User       `json:"user"`
	Bio            string     `json:"bio"`
	Gender         string     `json:"gender"`
	AccountType    string     `json:"account_type"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	ProfileImage   string     `json:"profile_image"`
	IsVerified     bool       `json:"is_verified"`
	IsFollowing    bool       `json:"is_following"`
	PostsCount     int        `json:"posts_count"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	AccountType *string `json:"account_type,omitempty"`
}

func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Bio == nil && u.Gender == nil && u.AccountType == nil
}

type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	LikesCount  int       `json:"likes_count"`
	IsLiked     bool      `json:"is_liked"`
	IsSaved     bool      `json:"is_saved"`
	Created     time.Time `json:"created"`
}

type NewPost struct {
	Title       string
	Description string
	Tags        []string
	ImageName   string
	Image       []byte
}

type Comment struct {
	ID               string    `json:"id"`
	PostID           string    `json:"post_id"`
	PostUserID       string    `json:"post_user_id"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Parent           string    `json:"parent,omitempty"`
	TopLevelParentID string    `json:"top_level_parent_id,omitempty"`
	Body             string    `json:"body"`
	Pinned           bool      `json:"pinned"`
	LikesCount       int       `json:"likes_count"`
	RepliesCount     int       `json:"replies_count"`
	CreatedAt        time.Time `json:"created_at"`
}

func (c Comment) TopLevel() bool { return c.Parent == "" }

type FollowResult struct {
	IsFollowing    bool `json:"is_following"`
	FollowersCount int  `json:"followers_count"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

const (
	GenderPreferNotSay = "PreferNotSay"
	GenderMale         = "Male"
	GenderFemale       = "Female"
)

var Genders = []string{GenderPreferNotSay, GenderMale, GenderFemale}

var AccountTypes = []string{
	"Artist", "Entrepreneur", "Doctor", "Engineer", "Influencer",
	"Designer", "Photographer", "Writer", "Musician", "Chef",
	"Athlete", "Teacher", "Scientist", "Lawyer", "Student",
	"Investor", "Freelancer", "Journalist", "Consultant", "Traveler",
}

// BioMaxLength is counted in runes.
const BioMaxLength = 125
