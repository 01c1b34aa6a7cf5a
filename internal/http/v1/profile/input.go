package profile

import "github.com/janisto/ols-profile-service/internal/platform/pagination"

// ProfileListInput for GET /profiles
type ProfileListInput struct {
	pagination.Params
}

// ProfilePathInput identifies a single profile.
type ProfilePathInput struct {
	UUID string `path:"uuid" minLength:"1" maxLength:"64" doc:"Profile identifier"`
}

// ProfileGetInput for GET /profiles/{uuid}
type ProfileGetInput struct {
	ProfilePathInput
	IfNoneMatch string `header:"If-None-Match" doc:"Entity tag from a previous read, e.g. W/\"<uuid>\""`
}

// ProfileCreateInput for POST /profiles
type ProfileCreateInput struct {
	Body struct {
		Email     string    `json:"email"               format:"email" maxLength:"255" required:"true" doc:"Email address"          example:"jane@example.com"`
		Firstname string    `json:"firstname,omitempty"                maxLength:"100"                 doc:"First name"             example:"Jane"`
		Lastname  string    `json:"lastname,omitempty"                 maxLength:"100"                 doc:"Last name"              example:"Doe"`
		Birthdate string    `json:"birthdate,omitempty"                maxLength:"35"                  doc:"Date or RFC 3339 time"  example:"1990-04-01"`
		Gender    string    `json:"gender,omitempty"                   maxLength:"50"                  doc:"Gender"                 example:"female"`
		Addresses []Address `json:"addresses,omitempty"                maxItems:"20"                   doc:"Postal addresses"`
		Image     *Image    `json:"image,omitempty"                                                    doc:"Profile picture"`
	}
}

// ProfileUpdateInput for PUT /profiles/{uuid}. Omitted fields keep their
// stored values.
type ProfileUpdateInput struct {
	ProfilePathInput
	Body struct {
		Email     *string    `json:"email,omitempty"     format:"email" maxLength:"255" doc:"Email address"         example:"jane@example.com"`
		Firstname *string    `json:"firstname,omitempty"                maxLength:"100" doc:"First name"            example:"Jane"`
		Lastname  *string    `json:"lastname,omitempty"                 maxLength:"100" doc:"Last name"             example:"Doe"`
		Birthdate *string    `json:"birthdate,omitempty"                maxLength:"35"  doc:"Date or RFC 3339 time" example:"1990-04-01"`
		Gender    *string    `json:"gender,omitempty"                   maxLength:"50"  doc:"Gender"                example:"female"`
		Addresses *[]Address `json:"addresses,omitempty"                maxItems:"20"   doc:"Replaces all addresses"`
		Image     *Image     `json:"image,omitempty"                                    doc:"Profile picture"`
	}
}

// ProfileDeleteInput for DELETE /profiles/{uuid}
type ProfileDeleteInput struct {
	ProfilePathInput
}
