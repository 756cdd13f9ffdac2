package pipeline

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ehr/survivalgen/internal/emr/errs"
	"github.com/ehr/survivalgen/internal/emr/event"
)

// scanLines yields successive lines of r, mirroring record.Read's use of
// bufio.Scanner with a generous max token size for long JSON payloads.
func scanLines(r io.Reader) func(yield func(string, error) bool) {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}

// EventTypeGroups maps a group name (e.g. "exposures", "outcomes") to the
// event types it contains, as read from a YAML document of the shape:
//
//	exposures:
//	  - tbl: rx
//	    typ: metformin
//	outcomes:
//	  - tbl: dx
//	    typ: "250.00"
type EventTypeGroups map[string][]event.Type

type yamlEventType struct {
	Tbl string `yaml:"tbl"`
	Typ string `yaml:"typ"`
}

// ReadEventTypeGroups parses r as a YAML document of named event-type
// groups, supplementing the flat tbl|typ format ReadEventTypes reads, for
// cases where exposures and outcomes are defined alongside each other in
// one file.
func ReadEventTypeGroups(r io.Reader) (EventTypeGroups, error) {
	var raw map[string][]yamlEventType
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &errs.IOError{Path: "<event-type-groups>", Cause: err}
	}
	groups := make(EventTypeGroups, len(raw))
	for name, entries := range raw {
		types := make([]event.Type, 0, len(entries))
		for _, e := range entries {
			types = append(types, EventTypeParser(e.Tbl, e.Typ))
		}
		groups[name] = types
	}
	return groups, nil
}

// ValidateEventTypeFiles parses each of the given flat tbl|typ files and
// reports how many event types each contains, without running the
// pipeline. It is the dry-run behind the validate subcommand.
func ValidateEventTypeFiles(files map[string]io.Reader, delim, commentPrefix string) (map[string]int, error) {
	counts := make(map[string]int, len(files))
	for name, r := range files {
		types, err := ReadEventTypes(r, delim, commentPrefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("%s: no event types found", name)
		}
		counts[name] = len(types)
	}
	return counts, nil
}
