package profile

import "time"

// Profile represents a stored profile record.
type Profile struct {
	UUID      string
	Email     string
	Firstname string
	Lastname  string
	Birthdate string // YYYY-MM-DD, empty when unknown
	Gender    string
	Addresses []Address
	Image     *Image
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address is a postal address attached to a profile.
type Address struct {
	Type        string
	Address     string
	Subdistrict string
	District    string
	City        string
	Province    string
	Country     string
	PostalCode  *int
}

// Image references a profile picture.
type Image struct {
	Name string
	URL  string
}

// CreateParams for creating a profile. Email is required.
type CreateParams struct {
	Email     string
	Firstname string
	Lastname  string
	Birthdate string
	Gender    string
	Addresses []Address
	Image     *Image
}

// UpdateParams for updating a profile. Nil fields are left untouched.
// UpdatedAt is stamped by the service and always written when non-zero.
type UpdateParams struct {
	Email     *string
	Firstname *string
	Lastname  *string
	Birthdate *string
	Gender    *string
	Addresses *[]Address
	Image     *Image
	UpdatedAt time.Time
}

// IsEmpty reports whether no mutable field is set.
func (p UpdateParams) IsEmpty() bool {
	return p.Email == nil &&
		p.Firstname == nil &&
		p.Lastname == nil &&
		p.Birthdate == nil &&
		p.Gender == nil &&
		p.Addresses == nil &&
		p.Image == nil
}
