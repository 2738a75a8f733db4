package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the slice of the SES v2 client the provider uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProvider sends through Amazon SES v2. Custom headers are not forwarded.
type SESProvider struct {
	From    string
	ReplyTo string
	client  sesAPI
}

// NewSESProvider builds a client from static credentials, or from the default
// chain in the environment when the keys are empty.
func NewSESProvider(region, accessKeyID, secretAccessKey, from, replyTo string) *SESProvider {
	opts := sesv2.Options{Region: region}
	if accessKeyID != "" && secretAccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}
	return &SESProvider{From: from, ReplyTo: replyTo, client: sesv2.New(opts)}
}

func (p *SESProvider) Name() string { return "ses" }

func (p *SESProvider) Send(ctx context.Context, msg Message) error {
	body := &types.Body{
		Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(p.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if p.ReplyTo != "" {
		input.ReplyToAddresses = []string{p.ReplyTo}
	}

	if _, err := p.client.SendEmail(ctx, input); err != nil {
		var rejected *types.MessageRejected
		var notVerified *types.MailFromDomainNotVerifiedException
		if errors.As(err, &rejected) || errors.As(err, &notVerified) {
			return fmt.Errorf("%w: ses: %w", ErrRejected, err)
		}
		return fmt.Errorf("ses: %w", err)
	}
	return nil
}
