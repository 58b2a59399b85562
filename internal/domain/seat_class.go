package domain

import "math"

type SeatClass string

const (
	SeatClassEconomy        SeatClass = "economy"
	SeatClassPremiumEconomy SeatClass = "premium-economy"
	SeatClassBusiness       SeatClass = "business"
	SeatClassFirst          SeatClass = "first"
)

type SeatClassInfo struct {
	ID              SeatClass `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Features        []string  `json:"features"`
	PriceMultiplier float64   `json:"price_multiplier"`
	Icon            string    `json:"icon"`
}

var seatClasses = []SeatClassInfo{
	{
		ID:              SeatClassEconomy,
		Name:            "Economy Class",
		Description:     "Comfortable and affordable travel",
		Features:        []string{"Standard seat pitch", "In-flight entertainment", "Complimentary snacks", "Free carry-on baggage"},
		PriceMultiplier: 1.0,
		Icon:            "💺",
	},
	{
		ID:              SeatClassPremiumEconomy,
		Name:            "Premium Economy",
		Description:     "Extra comfort with enhanced services",
		Features:        []string{"Extra legroom", "Priority boarding", "Enhanced meal service", "Premium entertainment", "Free checked baggage"},
		PriceMultiplier: 1.5,
		Icon:            "🛋️",
	},
	{
		ID:              SeatClassBusiness,
		Name:            "Business Class",
		Description:     "Premium comfort and luxury",
		Features:        []string{"Lie-flat seats", "Priority check-in", "Gourmet meals", "Airport lounge access", "Priority baggage handling", "Extra baggage allowance"},
		PriceMultiplier: 3.0,
		Icon:            "✈️",
	},
	{
		ID:              SeatClassFirst,
		Name:            "First Class",
		Description:     "Ultimate luxury experience",
		Features:        []string{"Private suites", "Personal concierge", "Chef-prepared meals", "Premium lounge access", "Chauffeur service", "Unlimited baggage", "Priority everything"},
		PriceMultiplier: 5.0,
		Icon:            "👑",
	},
}

// SeatClasses returns a copy of the catalog in tier order.
func SeatClasses() []SeatClassInfo {
	out := make([]SeatClassInfo, len(seatClasses))
	for i, c := range seatClasses {
		c.Features = append([]string(nil), c.Features...)
		out[i] = c
	}
	return out
}

func LookupSeatClass(id SeatClass) (SeatClassInfo, bool) {
	for _, c := range seatClasses {
		if c.ID == id {
			return c, true
		}
	}
	return SeatClassInfo{}, false
}

func (c SeatClass) Valid() bool {
	_, ok := LookupSeatClass(c)
	return ok
}

// OrDefault maps the empty class to economy.
func (c SeatClass) OrDefault() SeatClass {
	if c == "" {
		return SeatClassEconomy
	}
	return c
}

// ClassPrice rounds basePrice*multiplier to the nearest whole unit.
func ClassPrice(basePrice, multiplier float64) float64 {
	return math.Round(basePrice * multiplier)
}

// UnitPrice is the per-passenger price of class on f. An allocation with its own
// price wins over the catalog multiplier.
func UnitPrice(f *Flight, class SeatClass) (float64, error) {
	class = class.OrDefault()
	info, ok := LookupSeatClass(class)
	if !ok {
		return 0, ErrUnknownSeatClass
	}
	if a, ok := f.Allocation(class); ok && a.Price > 0 {
		return a.Price, nil
	}
	return ClassPrice(f.BasePrice, info.PriceMultiplier), nil
}

// Quote is the total price for passengers seats of class on f.
func Quote(f *Flight, class SeatClass, passengers int) (float64, error) {
	if passengers < 1 || passengers > MaxPassengers {
		return 0, ErrInvalidPassengers
	}
	unit, err := UnitPrice(f, class)
	if err != nil {
		return 0, err
	}
	return unit * float64(passengers), nil
}
