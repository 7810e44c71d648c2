package domain

import "time"

// TimestampLayout is the ISO-8601 form used for persisted and exchanged timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Account is a registered account as persisted by an account repository.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// User is the public view of an account. It never carries password material.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Session pairs a user with the token issued for it.
type Session struct {
	User  User
	Token string
}

// Public strips password material from the account.
func (a Account) Public() User {
	return User{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}
