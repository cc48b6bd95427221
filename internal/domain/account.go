package domain

import "time"

type (
	AccountId = string
	Email     = string
	Password  = string
)

// Account is a registered user's durable identity and credential record.
// VerificationToken/VerificationExpires are zero once the account is verified.
type Account struct {
	Id                  AccountId
	Username            string
	Email               Email
	PassHash            string
	Verified            bool
	VerificationToken   string
	VerificationExpires time.Time
	CreatedAt           time.Time
}

// PublicAccount is the subset of Account safe to return to clients.
type PublicAccount struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{Id: a.Id, Username: a.Username, Email: a.Email}
}

// Sanitized returns a copy of the account with the password hash stripped.
func (a Account) Sanitized() Account {
	a.PassHash = ""
	return a
}
