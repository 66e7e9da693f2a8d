package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the slice of the SES client used by SESSender; narrowed for
// testability.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers notifications through Amazon SES. Links in message
// bodies are built off the configured public domain.
type SESSender struct {
	client sesAPI
	domain string
	sender string
}

// NewSESSender builds an SESSender. When accessKeyID is empty the default
// AWS credential chain is used; otherwise the given static key pair.
func NewSESSender(ctx context.Context, domain, region, accessKeyID, secretAccessKey string) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		domain: domain,
		sender: "hi@" + domain,
	}, nil
}

func (s *SESSender) SendConfirmation(ctx context.Context, address, code, optOutCode string) error {
	link := fmt.Sprintf("https://%s/confirm-email?email=%s&code=%s",
		s.domain, url.QueryEscape(address), url.QueryEscape(code))

	body := "Welcome to OpenAudit.\n\n" +
		"Click to confirm your email address:\n" + link + "\n"

	return s.send(ctx, address, "Click to Confirm Email", body, optOutCode)
}

func (s *SESSender) SendChangeEmailConfirmation(ctx context.Context, address, code, optOutCode string) error {
	link := fmt.Sprintf("https://%s/confirm-change-email?email=%s&code=%s",
		s.domain, url.QueryEscape(address), url.QueryEscape(code))

	body := "A change of email address was requested for your OpenAudit account.\n\n" +
		"Click to confirm your new email address:\n" + link + "\n"

	return s.send(ctx, address, "Click to Confirm Change of Email", body, optOutCode)
}

func (s *SESSender) SendResetPassword(ctx context.Context, address, code, optOutCode string) error {
	link := fmt.Sprintf("https://%s/reset-password?code=%s",
		s.domain, url.QueryEscape(code))

	body := "A password reset was requested for your OpenAudit account.\n\n" +
		"Click to choose a new password:\n" + link + "\n\n" +
		"If you did not request this, you can ignore this message.\n"

	return s.send(ctx, address, "Your Request to Reset Password", body, "")
}

func (s *SESSender) SendAccountAlert(ctx context.Context, address, action, reason string) error {
	body := fmt.Sprintf("An action was taken on your OpenAudit account.\n\nAction: %s\nReason: %s\n", action, reason)

	return s.send(ctx, address, "Account Action Notification", body, "")
}

func (s *SESSender) send(ctx context.Context, address, subject, body, optOutCode string) error {
	if optOutCode != "" {
		body += fmt.Sprintf("\n--\nEmail opt-out: https://%s/do-not-email?email=%s&code=%s\n",
			s.domain, url.QueryEscape(address), url.QueryEscape(optOutCode))
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("OpenAudit <%s>", s.sender)),
		Destination: &types.Destination{
			ToAddresses: []string{address},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending %q to %s: %w", subject, address, err)
	}

	return nil
}
