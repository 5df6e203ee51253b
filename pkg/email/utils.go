package email

import (
	"fmt"
	"net/mail"
)

func ValidateEmail(address string) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, address)
	}
	return nil
}

func validateMessage(message *Message, defaultFrom string) error {
	if len(message.To) == 0 {
		return ErrMissingRecipients
	}
	if message.Subject == "" {
		return ErrMissingSubject
	}
	if message.Text == "" && message.HTML == "" {
		return ErrMissingContent
	}
	if err := ValidateEmail(fromAddress(message.From, defaultFrom)); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	for _, to := range message.To {
		if err := ValidateEmail(to); err != nil {
			return err
		}
	}
	return nil
}

func fromAddress(from, defaultFrom string) string {
	if from == "" {
		return defaultFrom
	}
	return from
}
