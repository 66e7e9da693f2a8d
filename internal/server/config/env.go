package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with pointer fields so that only variables
// actually present in the environment override earlier values.
type envConfig struct {
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	Domain                       *string        `env:"DOMAIN"`
	EmailCipherKey               *string        `env:"EMAIL_CIPHER_KEY"`
	EmailLookupSalt              *string        `env:"EMAIL_LOOKUP_SALT"`
	SecretKey                    *string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_VALIDITY_DURATION"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_VALIDITY_DURATION"`
	MailMode                     *string        `env:"MAIL_MODE"`
	SESRegion                    *string        `env:"SES_REGION"`
	SESAccessKeyID               *string        `env:"SES_ACCESS_KEY_ID"`
	SESSecretAccessKey           *string        `env:"SES_SECRET_ACCESS_KEY"`
}

func parseEnv(config *Config) {
	c := &envConfig{}
	if err := env.Parse(c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.Domain != nil {
		config.Domain = *c.Domain
	}
	if c.EmailCipherKey != nil {
		config.EmailCipherKey = *c.EmailCipherKey
	}
	if c.EmailLookupSalt != nil {
		config.EmailLookupSalt = *c.EmailLookupSalt
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = *c.AccessTokenValidityDuration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = *c.RefreshTokenValidityDuration
	}
	if c.MailMode != nil {
		config.MailMode = *c.MailMode
	}
	if c.SESRegion != nil {
		config.SESRegion = *c.SESRegion
	}
	if c.SESAccessKeyID != nil {
		config.SESAccessKeyID = *c.SESAccessKeyID
	}
	if c.SESSecretAccessKey != nil {
		config.SESSecretAccessKey = *c.SESSecretAccessKey
	}
}
