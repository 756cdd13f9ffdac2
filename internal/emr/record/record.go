package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehr/survivalgen/internal/emr/calendar"
	"github.com/ehr/survivalgen/internal/emr/errs"
)

// Tables is the closed set of source tables a Record's Table field may
// carry: biographic, diagnosis, measurement, observation, procedure,
// prescription, visit, death.
var Tables = map[string]bool{
	"bx": true, "dx": true, "mx": true, "ox": true,
	"px": true, "rx": true, "vx": true, "xx": true,
}

const numFields = 7

// fieldNames gives the canonical column order; used only for error
// messages and the header-row detector.
var fieldNames = []string{"id", "lo", "hi", "tbl", "typ", "val", "jsn"}

// Record is the fixed 7-tuple the record format describes.
type Record struct {
	ID    int
	Lo    *calendar.Date
	Hi    *calendar.Date
	Table string
	Type  Scalar
	Val   Scalar
	JSON  Value
}

// Clone returns a deep-enough copy of r for in-place mutation by callers
// such as the drug-duration inferer, which only ever rewrites Hi.
func (r *Record) Clone() *Record {
	cp := *r
	if r.Lo != nil {
		lo := *r.Lo
		cp.Lo = &lo
	}
	if r.Hi != nil {
		hi := *r.Hi
		cp.Hi = &hi
	}
	return &cp
}

// Split strips and filters a line-oriented stream per the record format:
// blank lines and lines beginning with the comment prefix (after
// whitespace-stripping) are dropped, the remainder split on delim with no
// quoting or escaping.
func Split(line, delim, commentPrefix string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return nil, false
	}
	return strings.Split(line, delim), true
}

// ReconstructJSON joins surplus fields (indices >= 6) back with delim, so
// that a JSON payload containing unescaped delimiters is recovered intact.
// Fields with exactly numFields columns are returned unchanged.
func ReconstructJSON(fields []string, delim string) []string {
	if len(fields) <= numFields {
		return fields
	}
	joined := strings.Join(fields[numFields-1:], delim)
	out := make([]string, numFields)
	copy(out, fields[:numFields-1])
	out[numFields-1] = joined
	return out
}

// Parse converts a 7-field row (after ReconstructJSON) into a typed
// Record. line is the 1-indexed source line number, used only for error
// reporting.
func Parse(fields []string, line int) (*Record, error) {
	if len(fields) != numFields {
		return nil, &errs.MalformedRecordError{
			Line:  line,
			Cause: fmt.Errorf("want %d fields, got %d", numFields, len(fields)),
		}
	}
	idText, loText, hiText, tbl, typText, valText, jsnText := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]

	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return nil, &errs.MalformedRecordError{Line: line, Field: "id", Cause: err}
	}

	lo, err := parseOptionalDate(loText)
	if err != nil {
		return nil, &errs.MalformedRecordError{Line: line, Field: "lo", Cause: err}
	}
	hi, err := parseOptionalDate(hiText)
	if err != nil {
		return nil, &errs.MalformedRecordError{Line: line, Field: "hi", Cause: err}
	}

	var jsn Value
	if jsnText != "" {
		var v any
		if err := json.Unmarshal([]byte(jsnText), &v); err != nil {
			return nil, &errs.MalformedRecordError{Line: line, Field: "jsn", Cause: err}
		}
		jsn = Value{Set: true, Value: v}
	}

	return &Record{
		ID:    id,
		Lo:    lo,
		Hi:    hi,
		Table: tbl,
		Type:  ParseAtom(typText),
		Val:   ParseAtom(valText),
		JSON:  jsn,
	}, nil
}

func parseOptionalDate(text string) (*calendar.Date, error) {
	if text == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(text)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// isHeaderRow reports whether fields looks like the optional tolerated
// header row.
func isHeaderRow(fields []string) bool {
	if len(fields) != numFields {
		return false
	}
	for i, name := range fieldNames {
		if !strings.EqualFold(strings.TrimSpace(fields[i]), name) {
			return false
		}
	}
	return true
}

// ReadOptions configures Read.
type ReadOptions struct {
	Delimiter     string // default "|"
	CommentPrefix string // default "#"
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.Delimiter == "" {
		o.Delimiter = "|"
	}
	if o.CommentPrefix == "" {
		o.CommentPrefix = "#"
	}
	return o
}

// Read streams Records from r, skipping comments/blank lines, reassembling
// JSON payloads that contain the delimiter, and tolerating (and skipping)
// a single leading canonical header row. It stops and returns the first
// error encountered, including read failures wrapped in errs.IOError.
func Read(r io.Reader, opts ReadOptions) func(yield func(*Record, error) bool) {
	opts = opts.withDefaults()
	return func(yield func(*Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineNo := 0
		first := true
		for scanner.Scan() {
			lineNo++
			fields, ok := Split(scanner.Text(), opts.Delimiter, opts.CommentPrefix)
			if !ok {
				continue
			}
			if first {
				first = false
				if isHeaderRow(fields) {
					continue
				}
			}
			fields = ReconstructJSON(fields, opts.Delimiter)
			rec, err := Parse(fields, lineNo)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, &errs.IOError{Cause: err})
		}
	}
}
