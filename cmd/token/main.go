package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"stash-backend/internal/utils"
	"stash-backend/pkg/jwt"
)

// Mints a bearer token for a user id, signed with JWT_SECRET.
func main() {
	userID := flag.String("user", "", "user id to embed in the token")
	ttl := flag.Duration("ttl", 2*time.Hour, "token lifetime")
	flag.Parse()

	utils.LoadConfig()
	secret := utils.GetConfig("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := jwt.NewJWTService(secret).GenerateTokenUser(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
