package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventBookingCreated       EventType = "booking_created"
	EventBookingStatusChanged EventType = "booking_status_changed"
	EventBookingCancelled     EventType = "booking_cancelled"
	EventBookingDeleted       EventType = "booking_deleted"
)

type BookingEvent struct {
	Type          EventType            `json:"type"`
	BookingID     string               `json:"booking_id"`
	FlightID      string               `json:"flight_id"`
	FlightNumber  string               `json:"flight_number,omitempty"`
	Email         string               `json:"email"`
	PassengerName string               `json:"passenger_name"`
	Status        domain.BookingStatus `json:"status"`
	SeatClass     domain.SeatClass     `json:"seat_class"`
	Passengers    int                  `json:"passengers"`
	TotalPrice    float64              `json:"total_price"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewBookingEvent builds an event snapshot of b.
func NewBookingEvent(t EventType, b *domain.Booking) BookingEvent {
	e := BookingEvent{
		Type:          t,
		BookingID:     b.ID,
		FlightID:      b.FlightID,
		Email:         b.Email,
		PassengerName: b.PassengerName,
		Status:        b.Status,
		SeatClass:     b.SeatClass,
		Passengers:    b.Passengers,
		TotalPrice:    b.TotalPrice,
		OccurredAt:    time.Now().UTC(),
	}
	if b.Flight != nil {
		e.FlightNumber = b.Flight.FlightNumber
	}
	return e
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logrus.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("published kafka message")
	return nil
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := p.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}

		lastErr = err
		logrus.WithError(err).WithFields(logrus.Fields{"topic": topic, "attempt": i + 1}).Warn("kafka publish failed")

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partition list.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	logrus.WithField("partitions", len(partitions)).Info("connected to kafka")
	return nil
}
