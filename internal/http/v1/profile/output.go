package profile

// ProfileGetOutput for GET /profile
type ProfileGetOutput struct {
	Body Profile
}

// ProfileUpdateOutput for PATCH /profile
type ProfileUpdateOutput struct {
	Body Profile
}

// AvatarPutOutput for PUT /profile/avatar
type AvatarPutOutput struct {
	Body Avatar
}
