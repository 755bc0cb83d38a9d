package model

import "time"

// OutOfServiceLead is recorded when an address falls outside the service area
// and no CRM contact exists yet for the session
type OutOfServiceLead struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	ToolID    string    `json:"toolId" bson:"toolId"`
	FirstName string    `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Address   string    `json:"address" bson:"address"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
