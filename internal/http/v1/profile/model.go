package profile

import (
	"github.com/janisto/profile-sync/internal/platform/timeutil"
)

// Profile represents a user profile response.
type Profile struct {
	ID        string         `json:"id"                  doc:"User identifier"             example:"user-123"`
	FullName  string         `json:"fullName"            doc:"Full name"                   example:"Ada Lovelace"`
	Email     string         `json:"email"               doc:"Email address (read-only)"   example:"ada@example.com"`
	Phone     string         `json:"phone"               doc:"Phone number"                example:"+1 555 0100"`
	Address1  string         `json:"address1"            doc:"Home address"                example:"1 Analytical Engine Way"`
	Address2  string         `json:"address2"            doc:"Secondary address"           example:""`
	AvatarURL string         `json:"avatarUrl,omitempty" doc:"Avatar URL, absent when none" example:"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/avatars%2Fabc?alt=media"`
	UpdatedAt *timeutil.Time `json:"updatedAt,omitempty" doc:"Last update timestamp"       example:"2024-01-15T10:30:00.000Z"`
}

// Avatar is the response of an avatar replacement.
type Avatar struct {
	AvatarURL string `json:"avatarUrl" doc:"URL of the new avatar" example:"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/avatars%2Fabc?alt=media"`
}
