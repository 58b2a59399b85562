package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/Domenick1991/flightstore/config"
	"github.com/Domenick1991/flightstore/internal/kafka"
	"github.com/Domenick1991/flightstore/internal/logger"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	from   string
	dialer dialer
	log    *logrus.Entry
}

// NewSender returns a sender that delivers over SMTP when email is enabled and
// only logs the notification otherwise.
func NewSender(cfg config.EmailConfig) *Sender {
	s := &Sender{from: cfg.From, log: logger.For("email")}
	if cfg.Enabled {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

var bodyTemplate = template.Must(template.New("booking").Parse(`<p>Hello {{.PassengerName}},</p>
<p>{{.Headline}}</p>
<table>
<tr><td>Booking</td><td>{{.BookingID}}</td></tr>
{{if .FlightNumber}}<tr><td>Flight</td><td>{{.FlightNumber}}</td></tr>{{end}}
<tr><td>Class</td><td>{{.SeatClass}}</td></tr>
<tr><td>Passengers</td><td>{{.Passengers}}</td></tr>
<tr><td>Total</td><td>${{printf "%.2f" .TotalPrice}}</td></tr>
<tr><td>Status</td><td>{{.Status}}</td></tr>
</table>`))

type bodyData struct {
	kafka.BookingEvent
	Headline string
}

func subject(event kafka.BookingEvent) (string, string) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking confirmed %s", event.FlightNumber), "Your booking is confirmed."
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking cancelled %s", event.FlightNumber), "Your booking has been cancelled."
	case kafka.EventBookingStatusChanged:
		return fmt.Sprintf("Booking updated %s", event.FlightNumber), fmt.Sprintf("Your booking is now %s.", event.Status)
	case kafka.EventBookingDeleted:
		return "Booking removed", "Your booking has been removed by the airline."
	}
	return "Booking update", "Your booking has changed."
}

// Build renders the notification message for event.
func (s *Sender) Build(event kafka.BookingEvent) (*gomail.Message, error) {
	subj, headline := subject(event)

	var body bytes.Buffer
	if err := bodyTemplate.Execute(&body, bodyData{BookingEvent: event, Headline: headline}); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", event.Email)
	m.SetHeader("Subject", subj)
	m.SetBody("text/html", body.String())
	return m, nil
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	log := s.log.WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID, "to": event.Email})
	if event.Email == "" {
		log.Warn("booking event without recipient, skipping")
		return nil
	}

	m, err := s.Build(event)
	if err != nil {
		return err
	}
	if s.dialer == nil {
		log.Info("email delivery disabled, notification logged only")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", event.Email, err)
	}
	log.Info("notification email sent")
	return nil
}
