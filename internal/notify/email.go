package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
)

const emailSubject = "Pull request activity"

// EmailChannel mails each message to the recipient's directory address via
// SMTP.
type EmailChannel struct {
	cfg config.EmailNotifyConfig
	dir directory.Directory

	// send delivers one mail; tests replace it.
	send func(addr string, auth smtp.Auth, from, to string, msg []byte) error
}

// NewEmail creates an EmailChannel from cfg.
func NewEmail(cfg config.EmailNotifyConfig, dir directory.Directory) *EmailChannel {
	e := &EmailChannel{cfg: cfg, dir: dir}
	e.send = e.deliver
	return e
}

func (e *EmailChannel) Name() string { return "email" }
func (e *EmailChannel) IsConfigured() bool {
	return e.cfg.SMTPHost != "" && e.cfg.From != "" && e.dir != nil
}

func (e *EmailChannel) Send(ctx context.Context, batch []classify.Message) error {
	port := e.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}

	var errs []error
	for _, m := range batch {
		entry, err := e.dir.Lookup(ctx, m.Recipient)
		if err != nil || entry.Email == "" {
			if err == nil || errors.Is(err, directory.ErrNotFound) {
				slog.Warn("email: no address for recipient, skipping", "login", m.Recipient)
				continue
			}
			errs = append(errs, fmt.Errorf("resolving %s: %w", m.Recipient, err))
			continue
		}
		msg := fmt.Sprintf("Subject: %s\r\nFrom: %s\r\nTo: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
			emailSubject, e.cfg.From, entry.Email, m.Body)
		if err := e.send(addr, auth, e.cfg.From, entry.Email, []byte(strings.ReplaceAll(msg, "\n", "\r\n"))); err != nil {
			errs = append(errs, fmt.Errorf("mailing %s: %w", m.Recipient, err))
		}
	}
	return errors.Join(errs...)
}

func (e *EmailChannel) deliver(addr string, auth smtp.Auth, from, to string, msg []byte) error {
	if !e.cfg.UseTLS {
		return smtp.SendMail(addr, auth, from, []string{to}, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.cfg.SMTPHost}) // #nosec G402 -- TLS config uses system defaults; ServerName is set for SNI
	if err != nil {
		return fmt.Errorf("email: TLS dial: %w", err)
	}
	defer conn.Close()
	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
