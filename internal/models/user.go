package models

import "time"

type contextKey string

const UserContextKey contextKey = "user"

type User struct {
	ID             string `json:"id"`
	Login          string `json:"login"`
	OrganizationID string `json:"organization_id,omitempty"`
	PassHash       []byte `json:"-"`
}

func (u *User) BelongsTo(orgID string) bool {
	return u != nil && orgID != "" && u.OrganizationID == orgID
}

// Session is what a bearer token resolves to. The user is a snapshot taken at
// login, so a changed organization takes effect on the next login.
type Session struct {
	Token    string    `json:"-"`
	User     User      `json:"user"`
	IssuedAt time.Time `json:"issued_at"`
}
