package event

import (
	"github.com/ehr/survivalgen/internal/emr/errs"
	"github.com/ehr/survivalgen/internal/emr/record"
)

// GroupByID groups an already id-sorted stream of records into one
// Sequence per contiguous run of equal id (adjacency-based groupby, not a
// hash table — the input is assumed sorted). A record whose id is less
// than the previous group's id is an OutOfOrderInput error.
func GroupByID(records func(yield func(*record.Record, error) bool)) func(yield func(*Sequence, error) bool) {
	return func(yield func(*Sequence, error) bool) {
		var (
			haveGroup  bool
			groupID    int
			facts      map[Type]Fact
			events     []Event
			sawAnyID   bool
			lastSeenID int
		)

		flush := func() bool {
			if !haveGroup {
				return true
			}
			seq := NewSequence(groupID, facts, events)
			haveGroup = false
			facts = nil
			events = nil
			return yield(seq, nil)
		}

		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			if sawAnyID && rec.ID < lastSeenID {
				yield(nil, errs.ErrOutOfOrderInput)
				return
			}
			sawAnyID = true
			lastSeenID = rec.ID

			if !haveGroup || rec.ID != groupID {
				if !flush() {
					return
				}
				haveGroup = true
				groupID = rec.ID
				facts = map[Type]Fact{}
				events = nil
			}

			if rec.Lo == nil && rec.Hi == nil {
				t, f := FactFromRecord(rec)
				facts[t] = f
			} else {
				events = append(events, EventFromRecord(rec))
			}
		}
		flush()
	}
}
