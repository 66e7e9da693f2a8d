package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/openaudit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   PostgreSQL DSN
//	-o string   public domain for links in outgoing mail
//	-k string   email cipher key (32 bytes)
//	-l string   email lookup-hash salt
//	-s string   access-token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-m string   mail mode: "ses" or "log"
//	-g string   SES region
//
// Arguments are filtered with flagx.FilterArgs first so that flags owned
// by other components do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-k", "-l", "-s", "-t", "-r", "-m", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Domain, "o", config.Domain, "public domain")
	fs.StringVar(&config.EmailCipherKey, "k", config.EmailCipherKey, "email cipher key")
	fs.StringVar(&config.EmailLookupSalt, "l", config.EmailLookupSalt, "email lookup salt")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.MailMode, "m", config.MailMode, "mail mode (ses|log)")
	fs.StringVar(&config.SESRegion, "g", config.SESRegion, "SES region")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
