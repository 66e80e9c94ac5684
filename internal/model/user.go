package model

import "time"

// User represents an account in the `users` table.  The events subsystem
// only ever reads users; rows are created by the auth endpoints.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address; also the JWT subject.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           int64     // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}

// Role is the value stored in `user_roles.role`.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
)

// OptionalRole is the result of a role lookup.  Users without a row in
// `user_roles` have no explicit role and fall back to a default chosen by
// the caller: "user" for events, "member" for community and profile reads.
type OptionalRole struct {
	Role  Role
	Valid bool
}

// SomeRole wraps an explicit role.
func SomeRole(r Role) OptionalRole { return OptionalRole{Role: r, Valid: true} }

// Or returns the explicit role, or def when none is recorded.
func (o OptionalRole) Or(def Role) Role {
	if o.Valid {
		return o.Role
	}
	return def
}
