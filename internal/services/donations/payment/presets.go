package payment

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Preset is one suggested donation amount.
type Preset struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

var presetValues = []int64{100, 500, 1000, 2000, 5000, 10000}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Presets returns the suggested amounts in currency units with labels
// formatted for tag.
func Presets(tag language.Tag, currency string) []Preset {
	printer := message.NewPrinter(tag)
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	out := make([]Preset, 0, len(presetValues))
	for _, value := range presetValues {
		out = append(out, Preset{Value: value, Label: symbol + printer.Sprintf("%d", value)})
	}
	return out
}
