// Package smtp provides outbound email for Inkwell. Settings come from the
// environment (see config.MailConfig) and are read once at startup. Mail is
// sent as UTF-8 HTML; bodies are rendered by internal/templates/emails.
package smtp

import "errors"

// Encryption modes accepted in SMTP_ENCRYPTION.
const (
	EncryptionStartTLS = "starttls"
	EncryptionSSL      = "ssl"
	EncryptionNone     = "none"
)

// ErrNotConfigured is returned by SendMail when no SMTP host is set.
var ErrNotConfigured = errors.New("smtp: host is not configured")

// Status is the admin-facing view of the mail settings. The password is
// never returned, only whether one is set.
type Status struct {
	Configured  bool   `json:"configured"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	HasPassword bool   `json:"hasPassword"`
	FromAddress string `json:"fromAddress"`
	FromName    string `json:"fromName"`
	Encryption  string `json:"encryption"`
}
