package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keySecret  = "auth.jwt_secret"
	keyExpiry  = "auth.token_expiry"
	keySubject = "subject"
	keyScopes  = "scopes"

	defaultExpiry = 24 * time.Hour
)

var errMissingSecret = errors.New("signing secret is required (--secret, AUTH_JWT_SECRET or auth.jwt_secret)")

// newRootCommand builds the tokengen command around v. Precedence is
// flag > environment > config file > default.
func newRootCommand(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "tokengen",
		Short:         "Mint a scoped bearer token for the admin click API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := mint(v)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "service config file (default ./config.yml when present)")
	flags.String("secret", "", "HMAC signing secret")
	flags.String("subject", "admin", "token subject")
	flags.StringSlice("scope", []string{auth.ScopeTrafficRead}, "granted scopes")
	flags.Duration("expiry", defaultExpiry, "token lifetime")

	return cmd
}

func initConfig(v *viper.Viper, cmd *cobra.Command, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv(keySecret, "AUTH_JWT_SECRET"); err != nil {
		return fmt.Errorf("bind AUTH_JWT_SECRET: %w", err)
	}

	v.SetDefault(keyExpiry, defaultExpiry)

	bindings := map[string]string{
		keySecret:  "secret",
		keyExpiry:  "expiry",
		keySubject: "subject",
		keyScopes:  "scope",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind %s flag: %w", flag, err)
		}
	}
	return nil
}

func mint(v *viper.Viper) (string, error) {
	secret := v.GetString(keySecret)
	if secret == "" {
		return "", errMissingSecret
	}

	expiry := v.GetDuration(keyExpiry)
	if expiry <= 0 {
		return "", fmt.Errorf("expiry must be positive, got %s", expiry)
	}

	token, err := auth.NewJWTManager(secret, expiry).GenerateToken(v.GetString(keySubject), v.GetStringSlice(keyScopes)...)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
