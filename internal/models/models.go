// Package models defines the FriendBook data model and its JSON wire format.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is one record of the friendface payload.
type User struct {
	ID         uuid.UUID `json:"id"`
	IsActive   bool      `json:"isActive"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Company    string    `json:"company"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	About      string    `json:"about"`
	Registered time.Time `json:"registered"`
	Tags       []string  `json:"tags"`

	// Friends holds names of other users. They are not checked against the
	// loaded batch and may dangle.
	Friends []string `json:"friends"`
}

// ResponseEnvelope is the top-level object of the payload.
type ResponseEnvelope struct {
	Users []User `json:"users"`
}

// Example returns a fully populated User, handy for previews and tests.
func Example() User {
	return User{
		ID:         uuid.MustParse("50a48fa3-2c0f-4397-ac50-64da464f9954"),
		IsActive:   true,
		Name:       "Adam Sayer",
		Age:        42,
		Company:    "XAM",
		Email:      "adasay@xam.com.au",
		Address:    "105 Edwin Ward Place, Mona Vale, NSW, 2103",
		About:      "Doing his best to learn Go",
		Registered: time.Date(2024, time.November, 8, 9, 30, 0, 0, time.UTC),
		Tags:       []string{"Go", "MTB", "Music"},
		Friends:    []string{},
	}
}
