package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled:
		return true
	}
	return false
}

// HoldsSeats reports whether a booking in this status occupies flight inventory.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusConfirmed || s == BookingStatusPending
}

const MaxPassengers = 9

type Booking struct {
	ID            string         `json:"id"`
	FlightID      string         `json:"flight_id"`
	PassengerName string         `json:"passenger_name"`
	Email         string         `json:"email"`
	Passengers    int            `json:"passengers"`
	SeatClass     SeatClass      `json:"seat_class"`
	SeatNumber    string         `json:"seat_number,omitempty"`
	TotalPrice    float64        `json:"total_price"`
	Status        BookingStatus  `json:"status"`
	BookedAt      time.Time      `json:"booked_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Flight        *FlightSummary `json:"flight,omitempty"`
}

// OwnedBy reports whether email is the booking's contact address, ignoring case.
func (b *Booking) OwnedBy(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && strings.EqualFold(b.Email, email)
}
