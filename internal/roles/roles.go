package roles

import "strings"

// Role governs moderation capability (message and room deletion).
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Static allow-lists consulted when the identity provider carries no role
// metadata. Matching is case-insensitive.
var (
	adminEmails  = []string{"kirillsnuf@gmail.com"}
	editorEmails = []string{"kirill.st2022@gmail.com"}
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleUser
}

// CanModerate reports whether the role may delete rooms and messages.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleEditor
}

// RoleByEmail maps an email address to a role via the static allow-lists.
// Unknown or empty emails map to RoleUser.
func RoleByEmail(email string) Role {
	if email == "" {
		return RoleUser
	}

	lower := strings.ToLower(email)
	for _, e := range adminEmails {
		if e == lower {
			return RoleAdmin
		}
	}
	for _, e := range editorEmails {
		if e == lower {
			return RoleEditor
		}
	}
	return RoleUser
}

// Resolve returns the effective role for a user. A valid role set in the
// provider's metadata is authoritative; otherwise the email allow-lists
// decide, defaulting to RoleUser. Resolve is total and never fails.
func Resolve(metadataRole Role, email string) Role {
	if metadataRole.Valid() {
		return metadataRole
	}
	return RoleByEmail(email)
}
