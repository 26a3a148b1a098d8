package user

import (
	"fmt"
	"strings"
)

// Credentials identify the account used to read league data.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Session carries the request-scoped identity sent with every league call.
type Session struct {
	Token    string
	LeagueID string
	UserID   string
}
