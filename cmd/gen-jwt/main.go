// gen-jwt mints a development bearer token for the mirage API. The
// subject claim becomes the owner id every instance query is scoped to.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		fmt.Fprintf(os.Stderr, "Error: JWT_SECRET environment variable is not set\n")
		os.Exit(1)
	}
	ownerID := flag.String("owner-id", "dev-owner", "Owner ID to include as the JWT subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	claims := jwt.MapClaims{
		"sub": *ownerID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(*ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
