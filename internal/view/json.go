package view

import (
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/junkliveoz/FriendBook/internal/loader"
	"github.com/junkliveoz/FriendBook/internal/models"
)

// StateResponse is the JSON form of a snapshot.
type StateResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Stale     bool          `json:"stale"`
	Attempt   uint64        `json:"attempt"`
	UpdatedAt time.Time     `json:"updated_at"`
	Users     []models.User `json:"users"`
}

// NewStateResponse converts snapshot. Users is always an array, never null.
func NewStateResponse(snapshot loader.Snapshot) StateResponse {
	users := snapshot.Users
	if users == nil {
		users = []models.User{}
	}

	return StateResponse{
		Status:    snapshot.Status.String(),
		Message:   snapshot.Message,
		Stale:     snapshot.Stale,
		Attempt:   snapshot.Attempt,
		UpdatedAt: snapshot.UpdatedAt,
		Users:     users,
	}
}

// Friend is a friend name, with the matching user's id when the name is
// present in the same batch.
type Friend struct {
	Name string     `json:"name"`
	ID   *uuid.UUID `json:"id,omitempty"`
}

// UserDetail is one user with resolved friends.
type UserDetail struct {
	models.User
	Friends []Friend `json:"friends"`
}

// FindUser looks id up in users.
func FindUser(users []models.User, id uuid.UUID) (models.User, bool) {
	found := funk.Find(users, func(u models.User) bool {
		return u.ID == id
	})
	if found == nil {
		return models.User{}, false
	}
	return found.(models.User), true
}

// NewUserDetail resolves user's friends by name against batch. Names missing
// from the batch are kept without an id.
func NewUserDetail(user models.User, batch []models.User) UserDetail {
	friends := funk.Map(user.Friends, func(name string) Friend {
		friend := Friend{Name: name}
		if match := funk.Find(batch, func(u models.User) bool { return u.Name == name }); match != nil {
			id := match.(models.User).ID
			friend.ID = &id
		}
		return friend
	}).([]Friend)

	return UserDetail{
		User:    user,
		Friends: friends,
	}
}
