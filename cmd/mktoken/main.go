// Command mktoken mints a development JWT for a principal so ledger
// mutations can be exercised with curl or the event watcher.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"postchain/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	principal := flag.String("principal", "", "Principal to embed as the token subject (required)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *principal == "" {
		log.Fatal("usage: mktoken -principal <id> [-ttl 24h]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": *principal,
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println(signed)
}
