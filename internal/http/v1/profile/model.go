package profile

import "github.com/janisto/ols-profile-service/internal/platform/timeutil"

// Address is a postal address in API payloads.
type Address struct {
	Type        string `json:"type,omitempty"        maxLength:"50"  doc:"Address kind"     example:"home"`
	Address     string `json:"address,omitempty"     maxLength:"255" doc:"Street address"   example:"99/9 Sukhumvit Road"`
	Subdistrict string `json:"subdistrict,omitempty" maxLength:"100" doc:"Subdistrict"      example:"Khlong Toei Nuea"`
	District    string `json:"district,omitempty"    maxLength:"100" doc:"District"         example:"Watthana"`
	City        string `json:"city,omitempty"        maxLength:"100" doc:"City"             example:"Bangkok"`
	Province    string `json:"province,omitempty"    maxLength:"100" doc:"Province"         example:"Bangkok"`
	Country     string `json:"country,omitempty"     maxLength:"100" doc:"Country"          example:"Thailand"`
	PostalCode  *int   `json:"postalCode,omitempty"  minimum:"0"     doc:"Postal code"      example:"10110"`
}

// Image references a profile picture.
type Image struct {
	Name string `json:"name,omitempty" maxLength:"255" doc:"File name" example:"avatar.png"`
	URL  string `json:"url,omitempty"  format:"uri"    doc:"Image URL" example:"https://cdn.example.com/avatar.png"`
}

// Profile is the API representation of a stored profile.
type Profile struct {
	UUID      string        `json:"uuid"                doc:"Profile identifier"        example:"5f0c7c1e-8a4f-4d8e-9c3b-2a1d6e7f8a9b"`
	Email     string        `json:"email"               doc:"Email address"             example:"jane@example.com"`
	Firstname string        `json:"firstname,omitempty" doc:"First name"                example:"Jane"`
	Lastname  string        `json:"lastname,omitempty"  doc:"Last name"                 example:"Doe"`
	Birthdate string        `json:"birthdate,omitempty" doc:"Birthdate (YYYY-MM-DD)"    example:"1990-04-01"`
	Gender    string        `json:"gender,omitempty"    doc:"Gender"                    example:"female"`
	Addresses []Address     `json:"addresses"           doc:"Postal addresses"`
	Image     *Image        `json:"image,omitempty"     doc:"Profile picture"`
	CreatedAt timeutil.Time `json:"createdAt"           doc:"Creation timestamp"        example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt timeutil.Time `json:"updatedAt"           doc:"Last update timestamp"     example:"2024-01-15T10:30:00.000Z"`
}
