package models

// User represents a registered account.
// Users are never hard-deleted; DeletedAt marks a soft delete.
type User struct {
	// ID is the database identifier.
	ID int64 `db:"id" json:"id"`

	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`

	// Email is unique across users and is one of the two login handles.
	Email string `db:"email" json:"email"`

	// Phone is unique across users and is the other login handle.
	Phone string `db:"phone" json:"phone"`

	// ImageURL points at the profile picture. A default image is assigned
	// on registration when none is given.
	ImageURL string `db:"image_url" json:"image_url"`

	// PasswordHash is the bcrypt hash. Never serialized.
	PasswordHash string `db:"password" json:"-"`

	// FCMToken is the push token reported by the client. Stored only.
	FCMToken *string `db:"fcm_token" json:"fcm_token"`

	IsAdmin       bool `db:"is_admin" json:"is_admin"`
	IsEmailVerify bool `db:"is_email_verify" json:"is_email_verify"`
	IsPhoneVerify bool `db:"is_phone_verify" json:"is_phone_verify"`

	CreatedAt Timestamp  `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp  `db:"updated_at" json:"updated_at"`
	DeletedAt *Timestamp `db:"deleted_at" json:"deleted_at,omitempty"`
}

// NewUser creates a user with creation timestamps set.
func NewUser(firstName, lastName, email, phone, passwordHash string) *User {
	now := Now()
	return &User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Deleted reports whether the user has been soft-deleted.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// ContactName is the display name shown to other users.
func (u *User) ContactName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserBrief is the public projection of a user embedded in other
// resources (payer, requester, member rows).
type UserBrief struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	ImageURL    string `json:"image_url"`
}

// Brief returns the public projection of u.
func (u *User) Brief() UserBrief {
	return UserBrief{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		ContactName: u.ContactName(),
		Phone:       u.Phone,
		ImageURL:    u.ImageURL,
	}
}
