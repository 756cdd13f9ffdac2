package drug

import (
	"testing"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/record"
)

func TestInferDays(t *testing.T) {
	intp := func(i int) *int { return &i }
	cases := []struct {
		name string
		opts InferOptions
		want int
	}{
		{"days+refills", InferOptions{DaysSupply: intp(30), Refills: intp(4), DefaultRxDays: 30}, 150},
		{"days only", InferOptions{DaysSupply: intp(30), DefaultRxDays: 30}, 30},
		{"quantity+refills", InferOptions{Quantity: intp(20), Refills: intp(1), DefaultRxDays: 30}, 40},
		{"quantity only", InferOptions{Quantity: intp(20), DefaultRxDays: 30}, 20},
		{"refills only", InferOptions{Refills: intp(4), DefaultRxDays: 30}, 150},
		{"nothing", InferOptions{DefaultRxDays: 30}, 30},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := InferDays(c.opts); got != c.want {
				t.Errorf("InferDays(%+v) = %d, want %d", c.opts, got, c.want)
			}
		})
	}
}

func TestSetInterval_WithRefillsOnlyKey(t *testing.T) {
	lo := calendar.Date{Year: 2000, Month: 1, Day: 1}
	hi := calendar.Date{Year: 2000, Month: 2, Day: 1}
	rec := &record.Record{
		ID: 1, Lo: &lo, Hi: &hi, Table: "rx", Type: record.ParseAtom("1234"),
		JSON: record.Value{Set: true, Value: map[string]any{
			"days": float64(30), "qty": float64(45), "refills": float64(4),
		}},
	}
	cfg := DefaultConfig()
	cfg.WashoutDays = 32
	got := SetInterval(rec, cfg)
	want := calendar.Date{Year: 2000, Month: 7, Day: 1}
	if *got.Hi != want {
		t.Errorf("got hi %v, want %v", *got.Hi, want)
	}
}

func TestSetInterval_NoJSON(t *testing.T) {
	lo := calendar.Date{Year: 2000, Month: 1, Day: 1}
	hi := calendar.Date{Year: 2000, Month: 1, Day: 11}
	rec := &record.Record{ID: 1, Lo: &lo, Hi: &hi, Table: "rx", Type: record.ParseAtom("1234")}
	cfg := DefaultConfig()
	cfg.WashoutDays = 14
	got := SetInterval(rec, cfg)
	want := calendar.Date{Year: 2000, Month: 2, Day: 14}
	if *got.Hi != want {
		t.Errorf("got hi %v, want %v", *got.Hi, want)
	}
}

func TestSetInterval_OnlyLoKnown(t *testing.T) {
	lo := calendar.Date{Year: 2005, Month: 2, Day: 6}
	rec := &record.Record{
		ID: 1, Lo: &lo, Table: "rx", Type: record.ParseAtom("377"),
		JSON: record.Value{Set: true, Value: map[string]any{
			"days_supply": float64(30), "refills": float64(10),
		}},
	}
	got := SetInterval(rec, DefaultConfig())
	want := lo.AddDays(30 * 11)
	if *got.Hi != want {
		t.Errorf("got hi %v, want %v", *got.Hi, want)
	}
}

func TestSetInterval_NeverDecreasesHi(t *testing.T) {
	lo := calendar.Date{Year: 2005, Month: 1, Day: 1}
	hi := calendar.Date{Year: 2006, Month: 1, Day: 1}
	rec := &record.Record{
		ID: 1, Lo: &lo, Hi: &hi, Table: "rx", Type: record.ParseAtom("1"),
		JSON: record.Value{Set: true, Value: map[string]any{
			"days_supply": float64(10),
		}},
	}
	got := SetInterval(rec, DefaultConfig())
	if *got.Hi != hi {
		t.Errorf("expected hi to remain %v, got %v", hi, *got.Hi)
	}
}
