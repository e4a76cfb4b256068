package formatter

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// FormatList writes kind, count and data keys.
func (f *YAMLFormatter) FormatList(w io.Writer, ds Dataset, opts FormatOptions) error {
	cols := opts.columns(ds)
	data := make([]map[string]any, len(ds.Records))
	for i, r := range ds.Records {
		data[i] = plain(project(r, cols))
	}
	return f.encode(w, map[string]any{
		"kind":  ds.Kind,
		"count": len(data),
		"data":  data,
	})
}

// FormatRecord writes kind and data keys.
func (f *YAMLFormatter) FormatRecord(w io.Writer, ds Dataset, record map[string]any, opts FormatOptions) error {
	var data any
	if record != nil {
		data = plain(project(record, opts.columns(ds)))
	}
	return f.encode(w, map[string]any{
		"kind": ds.Kind,
		"data": data,
	})
}

// FormatError writes an error key.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()})
}

func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

// plain round-trips values through JSON so types with MarshalJSON (decimal
// amounts, timestamps) render the same in yaml as in json.
func plain(record map[string]any) map[string]any {
	b, err := json.Marshal(record)
	if err != nil {
		return record
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return record
	}
	return out
}

func init() {
	Register(NewYAMLFormatter())
}
