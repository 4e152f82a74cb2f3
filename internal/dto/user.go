package dto

type UserRequest struct {
	Login          string `json:"login"`
	Password       string `json:"pswd"`
	AdminToken     string `json:"token"`
	OrganizationID string `json:"organization_id"`
}

type SessionRequest struct {
	Login    string `json:"login"`
	Password string `json:"pswd"`
}
