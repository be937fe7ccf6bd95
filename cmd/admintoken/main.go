// Command admintoken mints an admin access token for the catalogue API, or
// hashes a password for AUTH_BASIC_PASS_HASH.
//
//	admintoken -sub 1 -ttl 72h
//	admintoken -hash-password 's3cret'
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"vastra/internal/auth"
	"vastra/internal/config"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	sub := flag.Int64("sub", 1, "subject (operator id) carried in the token")
	ttl := flag.Duration("ttl", 0, "access token lifetime, defaults to AUTH_TOKEN_EXP")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of this password and exit")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if *hashPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*hashPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatalw("hash password", "error", err)
		}
		fmt.Println(string(hash))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}
	if *sub <= 0 {
		logger.Fatalw("invalid subject", "sub", *sub)
	}

	exp := cfg.Auth.AccessTokenExp
	if *ttl > 0 {
		exp = *ttl
	}

	authenticator := auth.NewJWTAuthenticator(
		cfg.Auth.Secret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.Issuer,
		cfg.Auth.Issuer,
		exp,
		cfg.Auth.RefreshTokenExp,
	)

	access, _, err := authenticator.GenerateTokens(*sub, auth.RoleAdmin)
	if err != nil {
		logger.Fatalw("generate token", "error", err)
	}

	logger.Infow("admin token minted", "sub", *sub, "expires", time.Now().Add(exp).Format(time.RFC3339))
	fmt.Fprintln(os.Stdout, access)
}
