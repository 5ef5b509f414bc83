package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/config"
)

// dialTimeout bounds the TCP connect to the mail server.
const dialTimeout = 10 * time.Second

// MailService is the interface other plugins use to send email.
// auth sends OTP codes with it; expertforms sends confirmations and replies.
type MailService interface {
	SendMail(ctx context.Context, to []string, subject, htmlBody string) error
	IsConfigured(ctx context.Context) bool
}

// SMTPService extends MailService with admin diagnostics.
type SMTPService interface {
	MailService

	// Status returns the active settings with the password redacted.
	Status(ctx context.Context) *Status

	// TestConnection verifies connectivity and credentials without sending.
	TestConnection(ctx context.Context) error
}

// smtpService implements SMTPService over net/smtp.
type smtpService struct {
	cfg config.MailConfig
	now func() time.Time
}

// NewSMTPService creates a new SMTP service from the mail config.
func NewSMTPService(cfg config.MailConfig) SMTPService {
	if cfg.Encryption == "" {
		cfg.Encryption = EncryptionStartTLS
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &smtpService{cfg: cfg, now: time.Now}
}

// IsConfigured returns true if a mail host is set.
func (s *smtpService) IsConfigured(_ context.Context) bool {
	return s.cfg.Host != ""
}

// Status returns the mail settings without the password.
func (s *smtpService) Status(_ context.Context) *Status {
	return &Status{
		Configured:  s.cfg.Host != "",
		Host:        s.cfg.Host,
		Port:        s.cfg.Port,
		Username:    s.cfg.Username,
		HasPassword: s.cfg.Password != "",
		FromAddress: s.cfg.FromAddress,
		FromName:    s.cfg.FromName,
		Encryption:  s.cfg.Encryption,
	}
}

// SendMail sends an HTML email to the given recipients.
func (s *smtpService) SendMail(ctx context.Context, to []string, subject, htmlBody string) error {
	if s.cfg.Host == "" {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return fmt.Errorf("smtp: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}
	msg := buildMessage(from, to, subject, htmlBody, s.now())
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var err error
	switch s.cfg.Encryption {
	case EncryptionSSL:
		err = s.sendSSL(addr, from.Address, to, msg)
	case EncryptionNone:
		err = s.sendPlain(addr, from.Address, to, msg)
	default:
		err = s.sendStartTLS(addr, from.Address, to, msg)
	}
	if err != nil {
		return err
	}

	slog.Debug("mail sent",
		slog.Int("recipients", len(to)),
		slog.String("subject", subject),
	)
	return nil
}

// buildMessage renders an RFC 5322 message with an HTML body. The subject
// is Q-encoded so non-ASCII titles survive.
func buildMessage(from mail.Address, to []string, subject, htmlBody string, now time.Time) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", now.UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return msg.String()
}

func (s *smtpService) auth() gosmtp.Auth {
	if s.cfg.Username == "" {
		return nil
	}
	return gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
}

func (s *smtpService) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (s *smtpService) sendStartTLS(addr, from string, to []string, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(s.tlsConfig()); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}
	if auth := s.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return sendMessage(client, from, to, msg)
}

// sendSSL sends email using implicit TLS (port 465 typical).
func (s *smtpService) sendSSL(addr, from string, to []string, msg string) error {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, s.tlsConfig())
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if auth := s.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return sendMessage(client, from, to, msg)
}

// sendPlain sends email without encryption. Only for local relays and
// development catch-alls like MailHog.
func (s *smtpService) sendPlain(addr, from string, to []string, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	return sendMessage(client, from, to, msg)
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func sendMessage(client *gosmtp.Client, from string, to []string, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", recipient, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}

// TestConnection performs the handshake (and STARTTLS and AUTH where
// configured) and quits without sending.
func (s *smtpService) TestConnection(_ context.Context) error {
	if s.cfg.Host == "" {
		return apperror.NewBadRequest("SMTP host is not configured")
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Encryption == EncryptionSSL {
		conn, err = tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, s.tlsConfig())
	} else {
		conn, err = net.DialTimeout("tcp", addr, dialTimeout)
	}
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("could not connect to %s: %v", addr, err))
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return apperror.NewBadRequest(fmt.Sprintf("SMTP handshake failed: %v", err))
	}
	defer client.Close()

	if s.cfg.Encryption == EncryptionStartTLS {
		if err := client.StartTLS(s.tlsConfig()); err != nil {
			return apperror.NewBadRequest(fmt.Sprintf("STARTTLS failed: %v", err))
		}
	}
	if auth := s.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return apperror.NewBadRequest(fmt.Sprintf("authentication failed: %v", err))
		}
	}

	return client.Quit()
}
