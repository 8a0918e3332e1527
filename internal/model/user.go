package model

// User represents an account as stored in the `users` table.  Users are
// never physically removed; IsDeleted hides them from authentication.
//
// Username is the token subject and Email is accepted as an alternative
// login.  HashedPassword is cleared before a user leaves the service layer;
// IsSuperuser gates catalogue mutations.
type User struct {
	Base
	Name           string `json:"name"`         // users.name
	Username       string `json:"username"`     // users.username
	Email          string `json:"email"`        // users.email
	HashedPassword string `json:"-"`            // users.hashed_password
	IsSuperuser    bool   `json:"is_superuser"` // users.is_superuser
}

// Role names the privilege level of u.  It feeds rate-limit keys and logs.
func (u *User) Role() string {
	if u.IsSuperuser {
		return "superuser"
	}
	return "user"
}

// Sanitized returns a copy of u without the password hash.
func (u *User) Sanitized() *User {
	cp := *u
	cp.HashedPassword = ""
	return &cp
}
