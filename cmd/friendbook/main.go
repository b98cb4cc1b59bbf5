// Command friendbook loads the friendface user list and prints it, or
// serves it over HTTP when a server address is configured.
package main

import (
	"github.com/junkliveoz/FriendBook/internal/app"
	"github.com/junkliveoz/FriendBook/internal/logger"
)

func main() {
	a, err := app.New()
	if err != nil {
		panic(err)
	}

	if err := a.Run(); err != nil {
		a.Close()
		logger.Log.Fatalln("friendbook failed", "error", err)
	}

	a.Close()
}
