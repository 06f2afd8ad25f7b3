package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	gomail "gopkg.in/mail.v2"

	"github.com/tofunori/farewatch/internal/models"
)

// EmailConfig holds SMTP settings for alert delivery.
type EmailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (c EmailConfig) Complete() bool {
	return c.Server != "" && c.Username != "" && c.Password != "" && c.To != ""
}

// EmailNotifier sends alerts over SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	return &EmailNotifier{cfg: cfg, dialer: d}
}

func (n *EmailNotifier) Notify(ctx context.Context, details models.FlightDetails, tc ThresholdContext) error {
	subject, body := Render(details, tc)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "send alert to %s", n.cfg.To)
	}
	return nil
}
