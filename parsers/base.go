package parsers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Record is one raw row keyed by its original header names.
type Record map[string]interface{}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatXES  Format = "xes"
)

type RecordReader interface {
	Read(input io.Reader) ([]Record, error)
}

// Batch is the decoded content of one input source.
type Batch struct {
	Name        string
	Format      Format
	Records     []Record
	Fingerprint uint64
}

type Config struct {
	Delimiter  string            `yaml:"delimiter"`
	IgnoreWhen []IgnoreCondition `yaml:"ignore-when"`
}

// IgnoreCondition drops rows whose column compares (== or !=) to value.
type IgnoreCondition struct {
	Column    string `yaml:"column"`
	Condition string `yaml:"condition"`
	Value     string `yaml:"value"`
}

type conditionLiteral func(Record) bool

var (
	loadedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "frictionminer_parsers",
		Name:      "records_total",
		Help:      "Total number of loaded raw records.",
	}, []string{"format"})

	skippedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "frictionminer_parsers",
		Name:      "skipped_records_total",
		Help:      "Total number of records dropped by an ignore condition.",
	}, []string{"format"})
)

func init() {
	prometheus.MustRegister(loadedRecords, skippedRecords)
}

// FormatFromPath derives the input format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xes":
		return FormatXES, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatTSV, FormatJSON, FormatXLSX, FormatXES:
		return f, nil
	case "jsonl", "ndjson":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported input format %q", raw)
	}
}

func NewReader(format Format, cfg Config) (RecordReader, error) {
	switch format {
	case FormatCSV:
		return NewCsvReader(cfg.Delimiter), nil
	case FormatTSV:
		return NewCsvReader("\t"), nil
	case FormatJSON:
		return NewJsonReader(), nil
	case FormatXLSX:
		return NewXlsxReader(), nil
	case FormatXES:
		return NewXesReader(), nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}

// LoadFile reads and decodes a whole event log file.
func LoadFile(path string, cfg Config) (*Batch, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &IngestionError{Source: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestionError{Source: path, Err: err}
	}

	return Decode(filepath.Base(path), format, data, cfg)
}

// Decode turns raw bytes into a batch of records. An input without any data
// row is an ingestion error.
func Decode(name string, format Format, data []byte, cfg Config) (*Batch, error) {
	log := zap.L().Sugar().With("service", "parsers")
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &IngestionError{Source: name, Err: ErrEmptyInput}
	}

	reader, err := NewReader(format, cfg)
	if err != nil {
		return nil, &IngestionError{Source: name, Err: err}
	}

	records, err := reader.Read(bytes.NewReader(data))
	if err != nil {
		return nil, &IngestionError{Source: name, Err: err}
	}

	conditions := compileConditions(cfg.IgnoreWhen)
	kept := records[:0]
	for _, record := range records {
		if shouldIgnore(conditions, record) {
			skippedRecords.WithLabelValues(string(format)).Inc()
			continue
		}
		kept = append(kept, record)
	}

	if len(kept) == 0 {
		return nil, &IngestionError{Source: name, Err: ErrEmptyInput}
	}

	loadedRecords.WithLabelValues(string(format)).Add(float64(len(kept)))
	log.Debugw("decoded input", "source", name, "format", format, "records", len(kept), "skipped", len(records)-len(kept))
	return &Batch{
		Name:        name,
		Format:      format,
		Records:     kept,
		Fingerprint: xxhash.Sum64(data),
	}, nil
}

func compileConditions(ignoreWhen []IgnoreCondition) []conditionLiteral {
	conditionFuncs := make([]conditionLiteral, len(ignoreWhen))
	for i, ignoreWhen := range ignoreWhen {
		ignoreWhen := ignoreWhen
		conditionFuncs[i] = func(record Record) bool {
			val := ""
			for k, v := range record {
				if strings.EqualFold(strings.TrimSpace(k), ignoreWhen.Column) {
					val = fmt.Sprint(v)
					break
				}
			}

			if ignoreWhen.Condition == "!=" {
				return val != ignoreWhen.Value
			}

			return val == ignoreWhen.Value
		}
	}
	return conditionFuncs
}

func shouldIgnore(conditions []conditionLiteral, record Record) bool {
	for _, condition := range conditions {
		if condition(record) {
			return true
		}
	}
	return false
}
