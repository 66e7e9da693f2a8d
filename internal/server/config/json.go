package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/openaudit/internal/flagx"
	"github.com/dmitrijs2005/openaudit/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Duration fields
// accept both "15m" strings and integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN                  string         `json:"database_dsn"`
	Domain                       string         `json:"domain"`
	EmailCipherKey               string         `json:"email_cipher_key"`
	EmailLookupSalt              string         `json:"email_lookup_salt"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	MailMode                     string         `json:"mail_mode"`
	SESRegion                    string         `json:"ses_region"`
	SESAccessKeyID               string         `json:"ses_access_key_id"`
	SESSecretAccessKey           string         `json:"ses_secret_access_key"`
}

// parseJson loads values from the JSON file named by -c/-config, if any.
// A missing flag means nothing is loaded; an unreadable or invalid file
// panics, since a config the operator pointed at must not be half-applied.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.Domain != "" {
		config.Domain = c.Domain
	}
	if c.EmailCipherKey != "" {
		config.EmailCipherKey = c.EmailCipherKey
	}
	if c.EmailLookupSalt != "" {
		config.EmailLookupSalt = c.EmailLookupSalt
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.MailMode != "" {
		config.MailMode = c.MailMode
	}
	if c.SESRegion != "" {
		config.SESRegion = c.SESRegion
	}
	if c.SESAccessKeyID != "" {
		config.SESAccessKeyID = c.SESAccessKeyID
	}
	if c.SESSecretAccessKey != "" {
		config.SESSecretAccessKey = c.SESSecretAccessKey
	}
}
