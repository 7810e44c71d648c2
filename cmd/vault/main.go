package main

import (
	"fmt"
	"os"

	"secure-vault/cmd/vault/commands"
	"secure-vault/internal/client"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.Message(err))
		os.Exit(1)
	}
}
