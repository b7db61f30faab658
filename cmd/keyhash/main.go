// Command keyhash prints the bcrypt hash to configure as SUBSPLIT_API_KEY_HASH.
//
//	go run ./cmd/keyhash <api-key>
package main

import (
	"fmt"
	"os"

	"github.com/mmynk/subsplit/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: keyhash <api-key>")
		os.Exit(2)
	}

	hash, err := auth.HashAPIKey(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyhash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
