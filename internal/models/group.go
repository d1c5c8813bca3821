package models

// GroupType is a seeded lookup row (Home, Trip, Couple, Other).
type GroupType struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// Group is a set of users who share bills.
// The creator is added as the first admin member.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	GroupTypeID int64     `db:"group_type_id" json:"group_type_id"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	CreatedBy   int64     `db:"created_by" json:"created_by"`
	CreatedAt   Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt   Timestamp `db:"updated_at" json:"updated_at"`
}

// GroupUser is a membership row. IsAdmin gates group mutations.
type GroupUser struct {
	ID        int64     `db:"id" json:"id"`
	GroupID   int64     `db:"group_id" json:"group_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp `db:"updated_at" json:"updated_at"`
}
