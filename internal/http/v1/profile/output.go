package profile

// ProfileListOutput for GET /profiles
type ProfileListOutput struct {
	Link string `header:"Link" doc:"RFC 8288 pagination links"`
	Body []Profile
}

// ProfileGetOutput for GET /profiles/{uuid}. Status is 304 with no body when
// the caller's entity tag is still current.
type ProfileGetOutput struct {
	Status       int
	ETag         string `header:"ETag"          doc:"Weak entity tag, set on cached reads"`
	Cache        string `header:"X-Cache"       doc:"HIT or MISS, set on cached reads"`
	CacheControl string `header:"Cache-Control" doc:"max-age of the cached entry"`
	Expires      string `header:"Expires"       doc:"Expiry of the cached entry"`
	Body         *Profile
}

// ProfileCreateOutput for POST /profiles (201 Created)
type ProfileCreateOutput struct {
	Location string `header:"Location" doc:"URL of the created profile"`
	Body     Profile
}

// ProfileUpdateOutput for PUT /profiles/{uuid}
type ProfileUpdateOutput struct {
	Body Profile
}
