// Package smtp delivers digest emails over SMTP with implicit TLS using
// go-mail.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"net/textproto"
	"time"

	"github.com/fwojciec/oadigest"
	"github.com/wneessen/go-mail"
)

// DefaultTimeout bounds a whole delivery, from dial to QUIT.
const DefaultTimeout = 30 * time.Second

// Ensure Mailer implements oadigest.Mailer at compile time.
var _ oadigest.Mailer = (*Mailer)(nil)

// Mailer sends messages through an SMTP server that expects TLS from the
// first byte (port 465 style), authenticating with PLAIN.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
	tls      *tls.Config
	now      func() time.Time
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithTimeout sets the delivery timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Mailer) {
		m.timeout = d
	}
}

// WithTLSConfig overrides the TLS client configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(m *Mailer) {
		m.tls = cfg
	}
}

// NewMailer creates a new Mailer that authenticates as username.
func NewMailer(host string, port int, username, password string, opts ...Option) *Mailer {
	m := &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether credentials are present.
func (m *Mailer) Configured() bool {
	return m.username != "" && m.password != ""
}

// Send delivers msg to its single recipient.
func (m *Mailer) Send(ctx context.Context, msg *oadigest.Message) error {
	if !m.Configured() {
		return oadigest.Errorf(oadigest.ENOTCONFIGURED, "SMTP credentials not configured")
	}
	if err := oadigest.ValidateEmail(msg.To); err != nil {
		return err
	}
	if msg.From == "" {
		copied := *msg
		copied.From = m.username
		msg = &copied
	}

	out, err := BuildMessage(msg, m.now())
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return deliveryError(err)
	}
	return nil
}

func (m *Mailer) client() (*mail.Client, error) {
	cfg := &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}
	if m.tls != nil {
		cfg = m.tls.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = m.host
		}
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSSL(),
		mail.WithTLSConfig(cfg),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		return nil, oadigest.Errorf(oadigest.EINVALID, "smtp client: %v", err)
	}
	return client, nil
}

// BuildMessage renders msg as a UTF-8 message dated date. With a text body
// the message is multipart/alternative, plain text first; otherwise it is
// a single HTML part.
func BuildMessage(msg *oadigest.Message, date time.Time) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return nil, oadigest.Errorf(oadigest.EINVALID, "invalid sender %q: %v", msg.From, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, oadigest.Errorf(oadigest.EINVALID, "invalid recipient %q: %v", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(date)
	out.SetMessageID()

	if msg.TextBody != "" {
		out.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	} else {
		out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	}
	return out, nil
}

// deliveryError maps server replies to ESTATUS and everything else through
// the transport classification.
func deliveryError(err error) error {
	var sendErr *mail.SendError
	var protoErr *textproto.Error
	switch {
	case errors.As(err, &sendErr), errors.As(err, &protoErr):
		return oadigest.Errorf(oadigest.ESTATUS, "smtp: %v", err)
	}
	return oadigest.TransportError(err)
}
