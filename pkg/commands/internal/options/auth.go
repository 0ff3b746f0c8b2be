package options

import (
	"github.com/urfave/cli/v3"
)

// AuthFlagCategory is the category of the auth flags.
const AuthFlagCategory = "[Auth]"

// NewAuthOptions returns a new *AuthOptions with default values.
func NewAuthOptions() *AuthOptions {
	return &AuthOptions{
		Service: "wharfd",
	}
}

// AuthOptions defines the options for bearer-token authentication.
type AuthOptions struct {
	// Service is the service name announced in the bearer challenge.
	Service string

	// Realm is the token endpoint announced in the bearer challenge.
	Realm string

	// MeEndpoint is the account-service endpoint resolving a token to the
	// identity that owns it.
	MeEndpoint string
}

// Flags returns the []cli.Flag related to current options.
func (o *AuthOptions) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "auth-service",
			Usage:       "service name announced in the bearer challenge",
			Sources:     cli.EnvVars("WHARFD_AUTH_SERVICE"),
			Value:       o.Service,
			Destination: &o.Service,
			Category:    AuthFlagCategory,
		},
		&cli.StringFlag{
			Name:        "auth-realm",
			Usage:       "token endpoint announced in the bearer challenge",
			Sources:     cli.EnvVars("WHARFD_AUTH_REALM"),
			Value:       o.Realm,
			Destination: &o.Realm,
			Category:    AuthFlagCategory,
		},
		&cli.StringFlag{
			Name:        "auth-me-endpoint",
			Usage:       "account-service endpoint resolving tokens to users",
			Sources:     cli.EnvVars("WHARFD_AUTH_ME_ENDPOINT"),
			Value:       o.MeEndpoint,
			Destination: &o.MeEndpoint,
			Category:    AuthFlagCategory,
		},
	}
}
