package credential

import "github.com/georgemunganga/sweetshop/internal/modules/user"

// Keys under which a login survives a restart.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Record is the persisted pair of bearer token and the identity it was issued to.
type Record struct {
	Token string
	User  user.User
}
