// Package drug infers a prescription's active duration from days-supply,
// refills, and quantity fields carried in its JSON payload, grounded on
// the days_supply / refills / quantity table of the record format.
package drug

import "github.com/ehr/survivalgen/internal/emr/record"

// InferOptions are the extra attributes a prescription record's JSON
// payload may carry.
type InferOptions struct {
	DaysSupply    *int
	Refills       *int
	Quantity      *int
	DefaultRxDays int
}

// InferDays returns the number of days this medication is "active", per
// the table:
//
//	days_supply present, refills present -> days_supply * (refills+1)
//	days_supply present, refills absent  -> days_supply
//	days_supply absent, quantity present -> quantity * (refills+1) or quantity
//	days_supply absent, quantity absent  -> default_rx_days * (refills+1) or default_rx_days
func InferDays(opts InferOptions) int {
	fills := 1
	hasRefills := opts.Refills != nil
	if hasRefills {
		fills = *opts.Refills + 1
	}
	switch {
	case opts.DaysSupply != nil:
		if hasRefills {
			return *opts.DaysSupply * fills
		}
		return *opts.DaysSupply
	case opts.Quantity != nil:
		if hasRefills {
			return *opts.Quantity * fills
		}
		return *opts.Quantity
	default:
		if hasRefills {
			return opts.DefaultRxDays * fills
		}
		return opts.DefaultRxDays
	}
}

// Config bounds and pads the inferred interval.
type Config struct {
	MinDays           int
	WashoutDays       int
	DefaultRxDays     int
	DaysSupplyKey     string
	RefillsKey        string
	QuantityKey       string
}

// DefaultConfig matches the record format's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinDays:       30,
		WashoutDays:   0,
		DefaultRxDays: 30,
		DaysSupplyKey: "days_supply",
		RefillsKey:    "refills",
		QuantityKey:   "quantity",
	}
}

// jsonInt extracts an integer-valued field from a JSON object, treating a
// missing key, null, or empty string as absent.
func jsonInt(obj map[string]any, key string) *int {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		if n == "" {
			return nil
		}
	}
	return nil
}

// SetInterval updates rec.Hi in place (returning the same *Record) to
// reflect the inferred drug duration: hi = max(hi, lo+days) when lo is
// known, or hi = lo+days when only lo is known. lo is never decreased,
// and rec.Hi is never set when rec.Lo is nil. days is floored at
// cfg.MinDays and cfg.WashoutDays is added afterward. Missing JSON keys
// never cause an error; the table's fallbacks always produce a result.
func SetInterval(rec *record.Record, cfg Config) *record.Record {
	obj, _ := rec.JSON.Value.(map[string]any)

	days := InferDays(InferOptions{
		DaysSupply:    jsonInt(obj, cfg.DaysSupplyKey),
		Refills:       jsonInt(obj, cfg.RefillsKey),
		Quantity:      jsonInt(obj, cfg.QuantityKey),
		DefaultRxDays: cfg.DefaultRxDays,
	})
	if days < cfg.MinDays {
		days = cfg.MinDays
	}
	days += cfg.WashoutDays

	if rec.Lo == nil {
		return rec
	}
	candidate := rec.Lo.AddDays(days)
	switch {
	case rec.Hi == nil:
		rec.Hi = &candidate
	case rec.Hi.Before(candidate):
		rec.Hi = &candidate
	}
	return rec
}
