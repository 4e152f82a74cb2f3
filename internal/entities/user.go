package entities

type User struct {
	ID             string `db:"id"`
	Login          string `db:"login"`
	OrganizationID string `db:"organization_id"`
	PassHash       []byte `db:"pass_hash"`
}
