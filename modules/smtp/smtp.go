// Package smtp delivers report emails over SMTP.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/Rajat069/leetcode-reminder-bot/internal/check"
	rmail "github.com/Rajat069/leetcode-reminder-bot/internal/mail"
	"github.com/Rajat069/leetcode-reminder-bot/pkg/potd"
)

var _ check.Mailer = (*Mailer)(nil)

// Mailer sends one message per SMTP session.
type Mailer struct {
	config Config
	from   mail.Address
	tls    *tls.Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Mailer.
func New(cfg Config, logger *slog.Logger) (*Mailer, error) {
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("smtp: parse from: %w", err)
	}
	if from.Name == "" {
		from.Name = cfg.FromName
	}
	return &Mailer{
		config: cfg,
		from:   *from,
		tls:    &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		logger: logger,
		now:    time.Now,
	}, nil
}

// Send implements check.Mailer. Every failure wraps potd.ErrDelivery.
func (m *Mailer) Send(ctx context.Context, msg rmail.Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("%w: smtp: invalid recipient %q: %w", potd.ErrDelivery, msg.To, err)
	}

	body, err := buildMessage(m.from, msg, m.now())
	if err != nil {
		return fmt.Errorf("%w: %w", potd.ErrDelivery, err)
	}

	if err := m.deliver(ctx, msg.To, body); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: smtp: %w", potd.ErrDelivery, err)
		}
		return fmt.Errorf("%w: smtp: send to %s: %w", potd.ErrDelivery, msg.To, err)
	}

	m.logger.Debug("smtp: message sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (m *Mailer) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock the session when ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if m.config.Security == SecurityTLS {
		conn = tls.Client(conn, m.tls)
	}

	c, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if m.config.Security == SecurityStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := c.StartTLS(m.tls); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.config.Username != "" {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(m.from.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}
