package redcap

import "os"

// Environment variables holding the API credentials.
const (
	EnvAPIURL = "REDCAP_API_URL"
	EnvToken  = "REDCAP_API_TOKEN"
)

// Config holds the API endpoint and token.
type Config struct {
	APIURL string
	Token  string
}

// ConfigFromEnv reads credentials from the environment. Fails with a
// MISSING_CREDENTIALS error when either variable is unset or empty, so
// workflows abort before any remote contact.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		APIURL: os.Getenv(EnvAPIURL),
		Token:  os.Getenv(EnvToken),
	}
	if cfg.APIURL == "" || cfg.Token == "" {
		return Config{}, &Error{
			Code:    ErrCodeMissingCredentials,
			Message: EnvAPIURL + " and " + EnvToken + " must both be set",
		}
	}
	return cfg, nil
}
