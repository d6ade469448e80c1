// Command plata-hashpw prints the bcrypt hash of a password, for use
// as OPERATOR_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"plata/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: plata-hashpw <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
