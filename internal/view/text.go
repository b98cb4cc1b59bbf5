// Package view projects loader snapshots for display: as plain text for the
// terminal and as JSON documents for the HTTP API. It holds no state.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/junkliveoz/FriendBook/internal/loader"
	"github.com/junkliveoz/FriendBook/internal/models"
)

const title = "Users"

// Render writes the screen for snapshot to w.
func Render(w io.Writer, snapshot loader.Snapshot) error {
	var b strings.Builder

	b.WriteString(title + "\n\n")

	switch snapshot.Status {
	case loader.StatusIdle:
		b.WriteString("Nothing loaded yet.\n")
	case loader.StatusLoading:
		b.WriteString("Loading...\n")
	case loader.StatusFailed:
		fmt.Fprintf(&b, "Error: %s\n", snapshot.Message)
		if len(snapshot.Users) > 0 {
			fmt.Fprintf(&b, "\nShowing %d users from an earlier load:\n\n", len(snapshot.Users))
			writeRows(&b, snapshot.Users)
		}
	case loader.StatusLoaded:
		if len(snapshot.Users) == 0 {
			b.WriteString("No users found.\n")
			break
		}
		writeRows(&b, snapshot.Users)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRows(b *strings.Builder, users []models.User) {
	for _, u := range users {
		fmt.Fprintf(b, "%s\n    %s\n", u.Name, u.Email)
	}
}
