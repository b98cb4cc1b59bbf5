package view

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junkliveoz/FriendBook/internal/loader"
	"github.com/junkliveoz/FriendBook/internal/models"
)

func sampleUsers() []models.User {
	alford := models.Example()
	alford.Name = "Alford Rodriguez"
	alford.Email = "alfordrodriguez@imkan.com"
	alford.Friends = []string{"Gale Dyer", "Hawkins Patel"}

	gale := models.Example()
	gale.ID = uuid.MustParse("eccdf4b8-c9f6-4eeb-8832-28027eb70155")
	gale.Name = "Gale Dyer"
	gale.Email = "galedyer@cemention.com"
	gale.Friends = []string{"Alford Rodriguez"}

	return []models.User{alford, gale}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		snapshot loader.Snapshot
		want     string
	}{
		{
			name:     "idle",
			snapshot: loader.Snapshot{Status: loader.StatusIdle},
			want:     "Users\n\nNothing loaded yet.\n",
		},
		{
			name:     "loading",
			snapshot: loader.Snapshot{Status: loader.StatusLoading, Users: sampleUsers(), Stale: true},
			want:     "Users\n\nLoading...\n",
		},
		{
			name:     "failed without data",
			snapshot: loader.Snapshot{Status: loader.StatusFailed, Message: "Invalid URL"},
			want:     "Users\n\nError: Invalid URL\n",
		},
		{
			name:     "failed with stale data",
			snapshot: loader.Snapshot{Status: loader.StatusFailed, Message: "Request failed: timeout", Users: sampleUsers(), Stale: true},
			want: "Users\n\nError: Request failed: timeout\n\nShowing 2 users from an earlier load:\n\n" +
				"Alford Rodriguez\n    alfordrodriguez@imkan.com\nGale Dyer\n    galedyer@cemention.com\n",
		},
		{
			name:     "loaded empty",
			snapshot: loader.Snapshot{Status: loader.StatusLoaded, Users: []models.User{}},
			want:     "Users\n\nNo users found.\n",
		},
		{
			name:     "loaded",
			snapshot: loader.Snapshot{Status: loader.StatusLoaded, Users: sampleUsers()},
			want:     "Users\n\nAlford Rodriguez\n    alfordrodriguez@imkan.com\nGale Dyer\n    galedyer@cemention.com\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, Render(&out, tt.snapshot))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestNewStateResponse(t *testing.T) {
	updated := time.Date(2024, time.November, 8, 9, 30, 0, 0, time.UTC)

	idle := NewStateResponse(loader.Snapshot{Status: loader.StatusIdle, UpdatedAt: updated})
	data, err := json.Marshal(idle)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"idle","stale":false,"attempt":0,"updated_at":"2024-11-08T09:30:00Z","users":[]}`, string(data))

	failed := NewStateResponse(loader.Snapshot{
		Status:  loader.StatusFailed,
		Message: "Invalid URL",
		Users:   sampleUsers(),
		Stale:   true,
		Attempt: 3,
	})
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "Invalid URL", failed.Message)
	assert.True(t, failed.Stale)
	assert.Len(t, failed.Users, 2)
}

func TestFindUser(t *testing.T) {
	users := sampleUsers()

	found, ok := FindUser(users, users[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Gale Dyer", found.Name)

	_, ok = FindUser(users, uuid.New())
	assert.False(t, ok)

	_, ok = FindUser(nil, users[0].ID)
	assert.False(t, ok)
}

func TestNewUserDetailResolvesFriends(t *testing.T) {
	users := sampleUsers()

	detail := NewUserDetail(users[0], users)
	require.Len(t, detail.Friends, 2)

	assert.Equal(t, "Gale Dyer", detail.Friends[0].Name)
	require.NotNil(t, detail.Friends[0].ID)
	assert.Equal(t, users[1].ID, *detail.Friends[0].ID)

	assert.Equal(t, "Hawkins Patel", detail.Friends[1].Name)
	assert.Nil(t, detail.Friends[1].ID, "dangling friend names stay unresolved")

	data, err := json.Marshal(detail)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Alford Rodriguez", decoded["name"])
	friends, ok := decoded["friends"].([]interface{})
	require.True(t, ok)
	assert.Len(t, friends, 2)
}

func TestNewUserDetailWithoutFriends(t *testing.T) {
	lonely := models.Example()
	lonely.Friends = nil

	detail := NewUserDetail(lonely, nil)
	assert.NotNil(t, detail.Friends)
	assert.Empty(t, detail.Friends)
}
