package user

import "context"

const pkg = "userHandler/"

type UserAdder interface {
	Register(ctx context.Context, login, password, organizationID, token string) (string, error)
}
