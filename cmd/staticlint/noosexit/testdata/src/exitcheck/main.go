package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("flushed")

	if len(os.Args) > 3 {
		os.Exit(2) // want "avoid using os.Exit in main.main"
	}

	func() {
		os.Exit(1) // want "avoid using os.Exit in main.main"
	}()
}

func helper() {
	os.Exit(1)
}
