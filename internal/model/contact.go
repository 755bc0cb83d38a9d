package model

// ContactFields are the CRM contact attributes collected by the wizard
type ContactFields struct {
	FirstName string            `json:"firstName,omitempty"`
	LastName  string            `json:"lastName,omitempty"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	UTM       map[string]string `json:"utm,omitempty"`
}

// IsEmpty reports whether nothing has been collected yet
func (f ContactFields) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == "" && f.Email == "" && f.Phone == "" && f.Address == ""
}
