package profile

import "time"

// Field names shared by every store.
const (
	fieldUUID      = "uuid"
	fieldEmail     = "email"
	fieldFirstname = "firstname"
	fieldLastname  = "lastname"
	fieldBirthdate = "birthdate"
	fieldGender    = "gender"
	fieldAddresses = "addresses"
	fieldImage     = "image"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// document is the stored shape of a profile. The same layout is used for
// MongoDB (bson), Firestore, DynamoDB items and cache entries (cbor).
type document struct {
	UUID      string       `bson:"uuid"                firestore:"uuid"                dynamodbav:"uuid"                cbor:"uuid"`
	Email     string       `bson:"email"               firestore:"email"               dynamodbav:"email"               cbor:"email"`
	Firstname string       `bson:"firstname,omitempty" firestore:"firstname,omitempty" dynamodbav:"firstname,omitempty" cbor:"firstname,omitempty"`
	Lastname  string       `bson:"lastname,omitempty"  firestore:"lastname,omitempty"  dynamodbav:"lastname,omitempty"  cbor:"lastname,omitempty"`
	Birthdate string       `bson:"birthdate,omitempty" firestore:"birthdate,omitempty" dynamodbav:"birthdate,omitempty" cbor:"birthdate,omitempty"`
	Gender    string       `bson:"gender,omitempty"    firestore:"gender,omitempty"    dynamodbav:"gender,omitempty"    cbor:"gender,omitempty"`
	Addresses []addressDoc `bson:"addresses,omitempty" firestore:"addresses,omitempty" dynamodbav:"addresses,omitempty" cbor:"addresses,omitempty"`
	Image     *imageDoc    `bson:"image,omitempty"     firestore:"image,omitempty"     dynamodbav:"image,omitempty"     cbor:"image,omitempty"`
	CreatedAt time.Time    `bson:"createdAt"           firestore:"createdAt"           dynamodbav:"createdAt"           cbor:"createdAt"`
	UpdatedAt time.Time    `bson:"updatedAt"           firestore:"updatedAt"           dynamodbav:"updatedAt"           cbor:"updatedAt"`
}

type addressDoc struct {
	Type        string `bson:"type,omitempty"        firestore:"type,omitempty"        dynamodbav:"type,omitempty"        cbor:"type,omitempty"`
	Address     string `bson:"address,omitempty"     firestore:"address,omitempty"     dynamodbav:"address,omitempty"     cbor:"address,omitempty"`
	Subdistrict string `bson:"subdistrict,omitempty" firestore:"subdistrict,omitempty" dynamodbav:"subdistrict,omitempty" cbor:"subdistrict,omitempty"`
	District    string `bson:"district,omitempty"    firestore:"district,omitempty"    dynamodbav:"district,omitempty"    cbor:"district,omitempty"`
	City        string `bson:"city,omitempty"        firestore:"city,omitempty"        dynamodbav:"city,omitempty"        cbor:"city,omitempty"`
	Province    string `bson:"province,omitempty"    firestore:"province,omitempty"    dynamodbav:"province,omitempty"    cbor:"province,omitempty"`
	Country     string `bson:"country,omitempty"     firestore:"country,omitempty"     dynamodbav:"country,omitempty"     cbor:"country,omitempty"`
	PostalCode  *int   `bson:"postalCode,omitempty"  firestore:"postalCode,omitempty"  dynamodbav:"postalCode,omitempty"  cbor:"postalCode,omitempty"`
}

type imageDoc struct {
	Name string `bson:"name,omitempty" firestore:"name,omitempty" dynamodbav:"name,omitempty" cbor:"name,omitempty"`
	URL  string `bson:"url,omitempty"  firestore:"url,omitempty"  dynamodbav:"url,omitempty"  cbor:"url,omitempty"`
}

func toDocument(p *Profile) document {
	return document{
		UUID:      p.UUID,
		Email:     p.Email,
		Firstname: p.Firstname,
		Lastname:  p.Lastname,
		Birthdate: p.Birthdate,
		Gender:    p.Gender,
		Addresses: toAddressDocs(p.Addresses),
		Image:     toImageDoc(p.Image),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d document) toProfile() *Profile {
	p := &Profile{
		UUID:      d.UUID,
		Email:     d.Email,
		Firstname: d.Firstname,
		Lastname:  d.Lastname,
		Birthdate: d.Birthdate,
		Gender:    d.Gender,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if len(d.Addresses) > 0 {
		p.Addresses = make([]Address, len(d.Addresses))
		for i, a := range d.Addresses {
			p.Addresses[i] = Address(a)
		}
	}
	if d.Image != nil {
		img := Image(*d.Image)
		p.Image = &img
	}
	return p
}

func toAddressDocs(in []Address) []addressDoc {
	if in == nil {
		return nil
	}
	out := make([]addressDoc, len(in))
	for i, a := range in {
		out[i] = addressDoc(a)
	}
	return out
}

func toImageDoc(in *Image) *imageDoc {
	if in == nil {
		return nil
	}
	img := imageDoc(*in)
	return &img
}

// fieldValue is one attribute written by a partial update.
type fieldValue struct {
	Name  string
	Value any
}

// updateFields lists the attributes a partial update writes, in a stable order.
func updateFields(params UpdateParams) []fieldValue {
	var fields []fieldValue
	add := func(name string, v *string) {
		if v != nil {
			fields = append(fields, fieldValue{Name: name, Value: *v})
		}
	}
	add(fieldEmail, params.Email)
	add(fieldFirstname, params.Firstname)
	add(fieldLastname, params.Lastname)
	add(fieldBirthdate, params.Birthdate)
	add(fieldGender, params.Gender)
	if params.Addresses != nil {
		docs := toAddressDocs(*params.Addresses)
		if docs == nil {
			docs = []addressDoc{}
		}
		fields = append(fields, fieldValue{Name: fieldAddresses, Value: docs})
	}
	if params.Image != nil {
		fields = append(fields, fieldValue{Name: fieldImage, Value: toImageDoc(params.Image)})
	}
	if !params.UpdatedAt.IsZero() {
		fields = append(fields, fieldValue{Name: fieldUpdatedAt, Value: params.UpdatedAt})
	}
	return fields
}
