package domain

// Category groups tickets and carries canned solutions for agents.
type Category struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Solutions []string `json:"solutions" yaml:"solutions"`
}

// Known category keys produced by the classifier.
const (
	CategoryBooking   = "booking"
	CategoryPayment   = "payment"
	CategoryProperty  = "property"
	CategoryHost      = "host"
	CategoryTechnical = DefaultCategory
)

// CategoryTone is the badge palette used when presenting a category.
type CategoryTone string

const (
	ToneBlue   CategoryTone = "blue"
	ToneGreen  CategoryTone = "green"
	ToneYellow CategoryTone = "yellow"
	TonePurple CategoryTone = "purple"
	ToneGray   CategoryTone = "gray"
)

// ToneFor maps a category to its badge tone; anything unknown shares the technical tone.
func ToneFor(category string) CategoryTone {
	switch category {
	case CategoryBooking:
		return ToneBlue
	case CategoryPayment:
		return ToneGreen
	case CategoryProperty:
		return ToneYellow
	case CategoryHost:
		return TonePurple
	case CategoryTechnical:
		return ToneGray
	default:
		return ToneGray
	}
}

// CategoryLabels names each classifier category for humans.
var CategoryLabels = map[string]string{
	CategoryBooking:   "Booking & Reservation Issues",
	CategoryPayment:   "Payment & Billing Issues",
	CategoryProperty:  "Property & Stay Issues",
	CategoryHost:      "Host/Seller Issues",
	CategoryTechnical: "Technical & App Issues",
}
