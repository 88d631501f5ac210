// Package mailer delivers rendered digests over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/seatscout/internal/digest"
	"github.com/rewired-gh/seatscout/internal/logger"
)

// Sender delivers a digest message.
type Sender interface {
	Send(ctx context.Context, msg *digest.Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	To       []string
	StartTLS bool
	Timeout  time.Duration
}

// Validate checks that the config can address and deliver a message.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("smtp host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", c.Port)
	}
	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", c.From, err)
	}
	if len(c.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range c.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	if (c.Username == "") != (c.Password == "") {
		return errors.New("smtp username and password must be set together")
	}
	return nil
}

// Mailer sends digests through a single SMTP relay.
type Mailer struct {
	cfg Config
	now func() time.Time
}

// New creates a Mailer after validating cfg.
func New(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{cfg: cfg, now: time.Now}, nil
}

// Send delivers msg to every configured recipient in one SMTP transaction.
func (m *Mailer) Send(ctx context.Context, msg *digest.Message) error {
	body, err := m.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := m.sendSMTP(ctx, body); err != nil {
		return err
	}
	logger.Info("Sent digest %q to %d recipient(s)", msg.Subject, len(m.cfg.To))
	return nil
}

func (m *Mailer) buildMessage(msg *digest.Message) ([]byte, error) {
	var buf bytes.Buffer

	from := (&mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}).String()
	domain := m.cfg.From[strings.LastIndex(m.cfg.From, "@")+1:]

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(m.cfg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		if err := writeQP(&buf, msg.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	boundary := "seatscout-" + uuid.NewString()
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	parts := []struct{ contentType, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n", p.contentType)
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		if err := writeQP(&buf, p.body); err != nil {
			return nil, err
		}
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

func writeQP(buf *bytes.Buffer, s string) error {
	w := quotedprintable.NewWriter(buf)
	if _, err := w.Write([]byte(s)); err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	return w.Close()
}

func (m *Mailer) sendSMTP(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.StartTLS {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range m.cfg.To {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	if err := client.Quit(); err != nil {
		logger.Debug("SMTP quit failed after delivery: %v", err)
	}
	return nil
}
