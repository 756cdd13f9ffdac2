// Package pipeline wires the record reader, event-sequence assembler,
// era aggregator, study-period clipper, and survival-example generator
// into one per-patient driver, grounded on
// original_source/src.py/survival_data.py:229-330
// (survivalize, events_to_sequences) and the teacher's dependency-
// injection-via-struct-field style for its collaborators.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/survivalgen/internal/emr/drug"
	"github.com/ehr/survivalgen/internal/emr/era"
	"github.com/ehr/survivalgen/internal/emr/errs"
	"github.com/ehr/survivalgen/internal/emr/event"
	"github.com/ehr/survivalgen/internal/emr/output"
	"github.com/ehr/survivalgen/internal/emr/record"
	"github.com/ehr/survivalgen/internal/emr/survival"
)

// ExposureEventType and OutcomeEventType are the canonical labels events
// are remapped to before era aggregation, matching
// build_exposure_outcome_event_type_map's defaults.
var (
	ExposureEventType = event.Type{Table: "exp", Typ: record.Scalar{}}
	OutcomeEventType  = event.Type{Table: "out", Typ: record.Scalar{}}
)

// DefaultIncludeRecord drops bx|record rows (original person records) and
// rx rows whose JSON drug_type_concept_id is 38000178 (medication
// mentions), per original_source/src.py/survival_data.py:37-50.
func DefaultIncludeRecord(r *record.Record) bool {
	switch r.Table {
	case "bx":
		if r.Type.Kind == record.ScalarString && r.Type.S == "record" {
			return false
		}
	case "rx":
		obj, _ := r.JSON.Value.(map[string]any)
		if v, ok := obj["drug_type_concept_id"]; ok {
			if f, ok := v.(float64); ok && f == 38000178 {
				return false
			}
		}
	}
	return true
}

// DefaultRecordTransformer applies drug.SetInterval to rx rows, per
// original_source/src.py/survival_data.py:129-135 (transform_record).
func DefaultRecordTransformer(cfg drug.Config) func(*record.Record) *record.Record {
	return func(r *record.Record) *record.Record {
		if r.Table != "rx" {
			return r
		}
		return drug.SetInterval(r.Clone(), cfg)
	}
}

// Driver bundles every hook point the original pipeline exposes as
// keyword arguments.
type Driver struct {
	ExposureTypes []event.Type
	OutcomeTypes  []event.Type

	ReplaceMappedEvents bool
	EraMaxGap           int

	StudyPeriodDefiner func(*event.Sequence) (*event.Sequence, bool)

	FeatureVectorFunc   survival.FeatureVectorFunc
	FeatureVectorHeader []string

	IncludeRecord     func(*record.Record) bool
	RecordTransformer func(*record.Record) *record.Record

	ReadOptions record.ReadOptions
	Delimiter   string // output delimiter, default "|"

	Logger zerolog.Logger
}

// typeMap maps a raw event type to the canonical exp/out label it was
// matched under, mirroring build_exposure_outcome_event_type_map.
func (d *Driver) typeMap() map[event.Type]event.Type {
	m := map[event.Type]event.Type{}
	for _, t := range d.ExposureTypes {
		m[t] = ExposureEventType
	}
	for _, t := range d.OutcomeTypes {
		m[t] = OutcomeEventType
	}
	return m
}

// mapEventTypes re-emits events whose type is in typeMap with the mapped
// type, keeping the original alongside unless ReplaceMappedEvents is set,
// per map_event_types.
func mapEventTypes(events []event.Event, typeMap map[event.Type]event.Type, replace bool) []event.Event {
	var out []event.Event
	for _, e := range events {
		mapped, ok := typeMap[e.Type]
		if !ok {
			out = append(out, e)
			continue
		}
		out = append(out, event.Event{When: e.When, Type: mapped, Value: e.Value, JSON: e.JSON})
		if !replace {
			out = append(out, e)
		}
	}
	return out
}

// survivalize turns a raw sequence into one whose exposure/outcome
// events are encoded, aggregated into eras, and clipped to the study
// period, per survivalize.
func (d *Driver) survivalize(seq *event.Sequence) *event.Sequence {
	typeMap := d.typeMap()
	mapped := mapEventTypes(seq.Events, typeMap, d.ReplaceMappedEvents)
	seq = seq.Copy(mapped)

	eraTypes := map[event.Type]bool{ExposureEventType: true, OutcomeEventType: true}
	seq = era.Aggregate(seq, eraTypes, d.EraMaxGap)

	if d.StudyPeriodDefiner != nil {
		clipped, _ := d.StudyPeriodDefiner(seq)
		seq = clipped
	}
	return seq
}

// Run reads records from in, groups them into sequences, survivalizes
// each, generates and truncates survival examples, and writes rows to
// out. It returns the first fatal error encountered (malformed record,
// out-of-order input, or I/O failure).
func (d *Driver) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := d.Logger.With().Str("run_id", uuid.New().String()).Logger()
	cfg := drug.DefaultConfig()
	includeRecord := d.IncludeRecord
	if includeRecord == nil {
		includeRecord = DefaultIncludeRecord
	}
	transform := d.RecordTransformer
	if transform == nil {
		transform = DefaultRecordTransformer(cfg)
	}
	delim := d.Delimiter
	if delim == "" {
		delim = "|"
	}

	writer := output.NewWriter(out, delim)
	if err := writer.WriteHeader(d.FeatureVectorHeader); err != nil {
		return &errs.IOError{Path: "<output>", Cause: err}
	}

	records := record.Read(in, d.ReadOptions)
	filtered := func(yield func(*record.Record, error) bool) {
		nRead := 0
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			nRead++
			if !record.Tables[rec.Table] {
				continue
			}
			if !includeRecord(rec) {
				continue
			}
			rec = transform(rec)
			if !yield(rec, nil) {
				return
			}
		}
		logger.Debug().Int("records_read", nRead).Msg("finished reading records")
	}

	nSequences := 0
	nSkipped := 0
	for seq, err := range event.GroupByID(filtered) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			return err
		}
		nSequences++

		seq = d.survivalize(seq)
		examples := survival.TruncateToFirstOutcome(survival.Generate(seq, ExposureEventType, OutcomeEventType, d.FeatureVectorFunc))
		if len(examples) == 0 {
			nSkipped++
			logger.Warn().Int("id", seq.ID).Msg("sequence produced no examples, skipping")
			continue
		}
		for _, ex := range examples {
			if err := writer.WriteExample(ex); err != nil {
				return &errs.IOError{Path: "<output>", Cause: err}
			}
		}
	}

	logger.Info().
		Int("sequences", nSequences).
		Int("skipped", nSkipped).
		Msg("pipeline run complete")
	return nil
}

// EventTypeParser converts one "tbl|typ" line into an event.Type. An
// empty typ yields (tbl, absent), which matches only events whose typ is
// also absent; other types in tbl are not matched.
func EventTypeParser(tbl, typ string) event.Type {
	return event.Type{Table: tbl, Typ: record.ParseAtom(typ)}
}

// ReadEventTypes reads one "tbl|typ" per (already split) line pair,
// skipping comments and blanks the same way record.Split does.
func ReadEventTypes(r io.Reader, delim, commentPrefix string) ([]event.Type, error) {
	var types []event.Type
	n := 0
	for line, err := range scanLines(r) {
		n++
		if err != nil {
			return nil, &errs.IOError{Path: "<event-types>", Cause: err}
		}
		fields, ok := record.Split(line, delim, commentPrefix)
		if !ok {
			continue
		}
		if len(fields) != 2 {
			return nil, &errs.MalformedRecordError{Line: n, Cause: fmt.Errorf("want tbl%styp, got %q", delim, line)}
		}
		types = append(types, EventTypeParser(fields[0], fields[1]))
	}
	return types, nil
}
