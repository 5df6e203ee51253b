package email

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESClient struct {
	client *ses.Client
	config *Config
	logger Logger
}

// NewSESClient uses static credentials when both keys are set and the
// default AWS chain otherwise.
func NewSESClient(ctx context.Context, emailConfig *Config, logger Logger) (*SESClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(emailConfig.SESRegion)}
	if emailConfig.SESAccessKey != "" && emailConfig.SESSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			emailConfig.SESAccessKey,
			emailConfig.SESSecretKey,
			"",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &Error{Operation: "load_config", Provider: SES, Err: err}
	}
	return &SESClient{
		client: ses.NewFromConfig(cfg),
		config: emailConfig,
		logger: logger,
	}, nil
}

func (s *SESClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, s.config.DefaultFrom); err != nil {
		return &Error{Operation: "send", Provider: SES, Err: err}
	}
	if _, err := s.client.SendEmail(ctx, s.buildInput(message)); err != nil {
		return &Error{Operation: "send", Provider: SES, Err: err}
	}
	s.logger.Debug("Email sent via SES", "to", message.To, "subject", message.Subject)
	return nil
}

func (s *SESClient) buildInput(message *Message) *ses.SendEmailInput {
	body := &types.Body{}
	if message.Text != "" {
		body.Text = &types.Content{Data: aws.String(message.Text), Charset: aws.String("UTF-8")}
	}
	if message.HTML != "" {
		body.Html = &types.Content{Data: aws.String(message.HTML), Charset: aws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(fromAddress(message.From, s.config.DefaultFrom)),
		Destination: &types.Destination{ToAddresses: message.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(message.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	if message.ReplyTo != "" {
		input.ReplyToAddresses = []string{message.ReplyTo}
	}
	if s.config.SESConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.config.SESConfigurationSet)
	}
	for k, v := range message.Tags {
		input.Tags = append(input.Tags, types.MessageTag{Name: aws.String(k), Value: aws.String(v)})
	}
	return input
}

func (s *SESClient) Close() error {
	return nil
}
