// Command tokengen mints bearer tokens for the traffic-gate admin routes.
//
//	tokengen --subject ops --scope traffic:read --expiry 1h
//
// The signing secret comes from --secret, AUTH_JWT_SECRET or auth.jwt_secret
// in the service config file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCommand(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
