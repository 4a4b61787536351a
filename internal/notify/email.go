// Package notify sends alert emails over SMTP. It is the transport
// collaborator behind the alert engine's Notifier seam; a send error here
// means the engine neither persists the event nor consumes the user's
// cooldown.
package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/gnana990/Equity-updated/internal/alert"
	"github.com/gnana990/Equity-updated/internal/market"
	"github.com/gnana990/Equity-updated/internal/observ"
	"github.com/gnana990/Equity-updated/internal/units"
)

// SMTPConfig configures the mail transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers alert events as HTML email.
type EmailSender struct {
	cfg    SMTPConfig
	dialer dialer
}

// NewEmailSender creates an SMTP-backed sender.
func NewEmailSender(cfg SMTPConfig) *EmailSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one alert event to userEmail.
func (s *EmailSender) Send(userEmail string, ev alert.Event) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", userEmail)
	m.SetHeader("Subject", Subject(ev))
	m.SetBody("text/html", Body(ev))
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert email to %s: %w", userEmail, err)
	}
	observ.Debug("alert_email_sent", map[string]any{"to": userEmail, "kind": string(ev.Kind)})
	return nil
}

// Subject builds the per-kind subject line.
func Subject(ev alert.Event) string {
	switch ev.Kind {
	case alert.KindNegativeOI:
		return fmt.Sprintf("Alert: Negative OI Change for %s %.0f %s", ev.Symbol, ev.Strike, ev.OptionType)
	case alert.KindTotalOI:
		return fmt.Sprintf("Alert: Total OI Change for %s", ev.Symbol)
	case alert.KindVolume:
		return fmt.Sprintf("Alert: Volume Comparison for %s", ev.Symbol)
	default:
		return fmt.Sprintf("Alert for %s", ev.Symbol)
	}
}

// Body renders the per-kind HTML body. Measured values and thresholds are in
// lots; timestamps render in the exchange timezone.
func Body(ev alert.Event) string {
	when := ev.CreatedAt.In(market.Location).Format("2006-01-02 15:04:05 MST")
	switch ev.Kind {
	case alert.KindNegativeOI:
		return fmt.Sprintf(negativeOIBody,
			ev.Symbol, ev.Strike, ev.OptionType,
			units.DisplayLots(ev.MeasuredValue), units.DisplayLots(ev.Threshold), when)
	case alert.KindTotalOI:
		return fmt.Sprintf(totalOIBody,
			ev.Symbol, units.DisplayLots(ev.MeasuredValue), units.DisplayLots(ev.Threshold), when)
	default:
		return fmt.Sprintf(genericBody, ev.Symbol,
			units.DisplayLots(ev.MeasuredValue), units.DisplayLots(ev.Threshold), when)
	}
}

const negativeOIBody = `<html>
<body style="font-family: Arial, sans-serif; background-color: #f8f9fa; padding: 20px;">
  <div style="background-color: white; padding: 20px; border-radius: 10px; border-left: 5px solid #dc2626;">
    <h2 style="color: #dc2626; margin-top: 0;">Negative OI Change Alert</h2>
    <div style="background-color: #fef2f2; padding: 15px; border-radius: 5px;">
      <p><strong>Symbol:</strong> %s</p>
      <p><strong>Strike Price:</strong> %.0f</p>
      <p><strong>Option Type:</strong> %s</p>
      <p><strong>OI Change:</strong> <span style="color: #dc2626; font-weight: bold;">%s</span></p>
      <p><strong>Threshold:</strong> %s</p>
      <p><strong>Time (IST):</strong> %s</p>
    </div>
    <p style="font-size: 14px; color: #6c757d;">
      Triggered because the OI change exceeded the negative threshold near the current market price.
    </p>
  </div>
</body>
</html>`

const totalOIBody = `<html>
<body style="font-family: Arial, sans-serif; background-color: #f8f9fa; padding: 20px;">
  <div style="background-color: white; padding: 20px; border-radius: 10px; border-left: 5px solid #f59e0b;">
    <h2 style="color: #f59e0b; margin-top: 0;">Total OI Change Alert</h2>
    <div style="background-color: #fffbeb; padding: 15px; border-radius: 5px;">
      <p><strong>Symbol:</strong> %s</p>
      <p><strong>Total OI Change:</strong> <span style="color: #f59e0b; font-weight: bold;">%s</span></p>
      <p><strong>Threshold:</strong> %s</p>
      <p><strong>Time (IST):</strong> %s</p>
    </div>
    <p style="font-size: 14px; color: #6c757d;">
      Triggered because the total OI change exceeded the threshold in either direction.
    </p>
  </div>
</body>
</html>`

const genericBody = `<html>
<body style="font-family: Arial, sans-serif; background-color: #f8f9fa; padding: 20px;">
  <div style="background-color: white; padding: 20px; border-radius: 10px; border-left: 5px solid #10b981;">
    <h2 style="color: #10b981; margin-top: 0;">Options Chain Alert</h2>
    <div style="background-color: #ecfdf5; padding: 15px; border-radius: 5px;">
      <p><strong>Symbol:</strong> %s</p>
      <p><strong>Measured:</strong> %s</p>
      <p><strong>Threshold:</strong> %s</p>
      <p><strong>Time (IST):</strong> %s</p>
    </div>
  </div>
</body>
</html>`
