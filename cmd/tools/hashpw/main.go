// Command hashpw prints an argon2id hash for AUTH_OPERATOR_PASSWORD_HASH.
// The password is read from the first argument or, when absent, from stdin.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/noah-isme/quotex-api/internal/auth"
)

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		log.Fatal("password must not be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
