package profile

// ProfileGetInput for GET /profile (no body needed)
type ProfileGetInput struct{}

// ProfileUpdateInput for PATCH /profile. Only provided fields are written;
// email belongs to the account and cannot be set here.
type ProfileUpdateInput struct {
	Body struct {
		FullName *string `json:"fullName,omitempty" maxLength:"200" doc:"Full name"                 example:"Ada Lovelace"`
		Phone    *string `json:"phone,omitempty"    maxLength:"40"  doc:"Phone number"              example:"+1 555 0100"`
		Address1 *string `json:"address1,omitempty" maxLength:"300" doc:"Home address"              example:"1 Analytical Engine Way"`
		Address2 *string `json:"address2,omitempty" maxLength:"300" doc:"Secondary address, may be empty" example:""`
	}
}

// AvatarPutInput for PUT /profile/avatar. The body is the raw image.
type AvatarPutInput struct {
	ContentType string `header:"Content-Type" doc:"Image media type"`
	RawBody     []byte
}

// SessionDeleteInput for DELETE /session (no body needed)
type SessionDeleteInput struct{}
