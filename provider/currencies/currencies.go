package currencies

import (
	"maps"

	"github.com/sig-0/remitrates/storage/types"
)

const (
	USD  = "USD"
	USDT = "USDT"
	MXN  = "MXN"
	COP  = "COP"
	VES  = "VES"
	BRL  = "BRL"
	ARS  = "ARS"
	CLP  = "CLP"
	PEN  = "PEN"
	BOB  = "BOB"
	GTQ  = "GTQ"
	DOP  = "DOP"
	HNL  = "HNL"
	EUR  = "EUR"
	CNY  = "CNY"
	TRY  = "TRY"
	RUB  = "RUB"
)

// Table maps destination country codes to their payout currency
type Table map[string]string

// Default returns the payout currencies of the supported corridors
func Default() Table {
	return Table{
		"MX": MXN,
		"CO": COP,
		"VE": VES,
		"BR": BRL,
		"AR": ARS,
		"CL": CLP,
		"PE": PEN,
		"BO": BOB,
		"GT": GTQ,
		"SV": USD,
		"DO": DOP,
		"HN": HNL,
	}
}

// Currency returns the payout currency of the destination country
func (t Table) Currency(country string) (string, bool) {
	c, ok := t[types.NormalizeCode(country)]

	return c, ok
}

// With returns a copy of the table with the overrides applied on top
func (t Table) With(overrides map[string]string) Table {
	out := make(Table, len(t)+len(overrides))
	maps.Copy(out, t)

	for country, currency := range overrides {
		out[types.NormalizeCode(country)] = types.NormalizeCode(currency)
	}

	return out
}

// Countries returns the destination countries that have a payout currency
func (t Table) Countries() []string {
	out := make([]string, 0, len(t))
	for country := range t {
		out = append(out, country)
	}

	return out
}
