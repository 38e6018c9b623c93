package parsers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// standard XES attribute keys and the record columns they map to
var xesKeys = map[string]string{
	"concept:name":         "activity",
	"time:timestamp":       "timestamp",
	"org:resource":         "actor",
	"lifecycle:transition": "status",
}

type xesReader struct{}

// NewXesReader returns a reader for IEEE XES event logs. Every event becomes
// one record carrying the concept:name of its trace as case_id.
func NewXesReader() *xesReader {
	return &xesReader{}
}

func (r *xesReader) Read(input io.Reader) ([]Record, error) {
	decoder := xml.NewDecoder(input)

	records := make([]Record, 0)
	var (
		inTrace bool
		caseID  string
		event   Record
		pending []Record
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid xes: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trace":
				inTrace = true
				caseID = ""
				pending = pending[:0]
			case "event":
				if inTrace {
					event = make(Record)
				}
			case "string", "date", "int", "float", "boolean", "id":
				key, value := xesAttribute(t)
				switch {
				case event != nil:
					if column, ok := xesKeys[key]; ok {
						key = column
					}
					if _, exists := event[key]; !exists {
						event[key] = value
					}
				case inTrace && key == "concept:name":
					caseID = value
				}
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("invalid xes: %w", err)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "event":
				if event != nil {
					pending = append(pending, event)
					event = nil
				}
			case "trace":
				// the trace name may follow its events
				for _, e := range pending {
					e["case_id"] = caseID
					records = append(records, e)
				}
				pending = pending[:0]
				inTrace = false
			}
		}
	}

	return records, nil
}

func xesAttribute(el xml.StartElement) (key string, value string) {
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "key":
			key = attr.Value
		case "value":
			value = attr.Value
		}
	}
	return key, value
}
