package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// EmailConfig holds email channel configuration
type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	FromAddress string
	Enabled     bool
}

// EmailSender sends formatted HTML emails over SMTP
type EmailSender struct {
	config *EmailConfig
	auth   smtp.Auth

	// sendMail is swappable for tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates an email channel sender
func NewEmailSender(config *EmailConfig) *EmailSender {
	s := &EmailSender{
		config:   config,
		sendMail: smtp.SendMail,
	}

	if config.Username != "" && config.Password != "" {
		s.auth = smtp.PlainAuth("", config.Username, config.Password, config.SMTPHost)
	}

	slog.Info("Email channel initialized",
		"enabled", config.Enabled,
		"from", config.FromAddress)

	return s
}

// Channel returns the channel this sender delivers on
func (s *EmailSender) Channel() Channel {
	return ChannelEmail
}

// Send delivers the rendered email to the event recipient
func (s *EmailSender) Send(ctx context.Context, event *Event, content *Content) (string, error) {
	if !s.config.Enabled {
		return "", fmt.Errorf("email channel is disabled")
	}

	to := event.Recipient.Email
	if to == "" {
		return "", &ValidationError{Channel: ChannelEmail, Reason: "recipient email is empty"}
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return "", &ValidationError{Channel: ChannelEmail, Reason: fmt.Sprintf("malformed email address %q", to)}
	}

	// SMTP has no provider-issued reference, so one is minted locally for
	// the delivery log and the Message-ID header.
	ref := uuid.New().String()

	headers := make(map[string]string)
	headers["From"] = s.config.FromAddress
	headers["To"] = to
	headers["Subject"] = content.EmailSubject
	headers["Message-ID"] = fmt.Sprintf("<%s@propserve>", ref)
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(content.EmailHTML)

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	if err := s.sendMail(addr, s.auth, s.config.FromAddress, []string{to}, []byte(msg.String())); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	slog.Debug("Email notification sent", "eventType", event.Type, "requestId", event.RequestID)
	return ref, nil
}
