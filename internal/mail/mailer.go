// Package mail is the notification collaborator: a narrow interface taking a
// recipient identity, a templated intent, and an optional action URL.
package mail

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/marloweh/trailbook/internal/models"
	"github.com/rs/zerolog"
)

type Mailer interface {
	SendWelcome(user models.User, actionURL string) error
	SendPasswordReset(user models.User, resetURL string) error
}

// SMTPMailer delivers over plain SMTP with a dial timeout.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

func NewSMTPMailer(host string, port int, username string, password string, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  30 * time.Second,
	}
}

func (mailer *SMTPMailer) SendWelcome(user models.User, actionURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome to Trailbook! Visit %s to complete your profile.\r\n",
		user.Name, actionURL,
	)
	return mailer.send(user.Email, "Welcome to Trailbook!", body)
}

func (mailer *SMTPMailer) SendPasswordReset(user models.User, resetURL string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nForgot your password? Submit a PATCH request with your new password to %s.\r\n"+
			"The link is valid for 10 minutes. If you didn't request a reset, ignore this email.\r\n",
		user.Name, resetURL,
	)
	return mailer.send(user.Email, "Your password reset token (valid for 10 minutes)", body)
}

func (mailer *SMTPMailer) send(to string, subject string, body string) error {
	address := net.JoinHostPort(mailer.host, fmt.Sprintf("%d", mailer.port))

	connection, err := net.DialTimeout("tcp", address, mailer.timeout)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", address, err)
	}

	client, err := smtp.NewClient(connection, mailer.host)
	if err != nil {
		connection.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if mailer.username != "" {
		auth := smtp.PlainAuth("", mailer.username, mailer.password, mailer.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(envelopeAddress(mailer.from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", mailer.from, to, subject, body)
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}

	return client.Quit()
}

// envelopeAddress strips an optional display name from a From header value.
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return strings.TrimSpace(from)
}

// LogMailer is the development stand-in: it records the intent instead of
// delivering anything.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (mailer *LogMailer) SendWelcome(user models.User, actionURL string) error {
	mailer.logger.Info().
		Str("to", user.Email).
		Str("url", actionURL).
		Msg("welcome email suppressed in development")
	return nil
}

func (mailer *LogMailer) SendPasswordReset(user models.User, resetURL string) error {
	mailer.logger.Info().
		Str("to", user.Email).
		Str("url", resetURL).
		Msg("password reset email suppressed in development")
	return nil
}
