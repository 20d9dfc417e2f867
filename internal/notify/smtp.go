package notify

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/go-mail/mail"
)

// SMTPConfig configura el sender SMTP.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier entrega los mails por SMTP con go-mail.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg SMTPConfig) *SMTPNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return &SMTPNotifier{dialer: d, from: cfg.From}
}

func (n *SMTPNotifier) SendOTP(ctx context.Context, email string, code int, ttl time.Duration) error {
	subject := "Tu código de recuperación"
	body := fmt.Sprintf(
		"Tu código de recuperación es %04d. Vence en %d minutos.\r\n"+
			"Si no pediste este código, ignorá este mail.\r\n",
		code, int(ttl.Minutes()),
	)
	return n.send(ctx, email, subject, body)
}

func (n *SMTPNotifier) SendPasswordChanged(ctx context.Context, email string) error {
	subject := "Tu password fue cambiado"
	body := "Tu password fue cambiado. Si no fuiste vos, contactá soporte inmediatamente.\r\n"
	return n.send(ctx, email, subject, body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return n.dialer.DialAndSend(m)
}
