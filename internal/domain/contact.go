package domain

// ContactKind selects the delivery channel for one-time codes.
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// Contact is a normalized email address or E.164 phone number.
type Contact struct {
	Kind  ContactKind `json:"kind"`
	Value string      `json:"value"`
}

func (c Contact) String() string { return c.Value }
