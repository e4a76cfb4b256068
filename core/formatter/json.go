package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// FormatList writes {"kind", "count", "data"}.
func (f *JSONFormatter) FormatList(w io.Writer, ds Dataset, opts FormatOptions) error {
	cols := opts.columns(ds)
	data := make([]map[string]any, len(ds.Records))
	for i, r := range ds.Records {
		data[i] = project(r, cols)
	}
	return f.encode(w, map[string]any{
		"kind":  ds.Kind,
		"count": len(data),
		"data":  data,
	})
}

// FormatRecord writes {"kind", "data"}.
func (f *JSONFormatter) FormatRecord(w io.Writer, ds Dataset, record map[string]any, opts FormatOptions) error {
	var data any
	if record != nil {
		data = project(record, opts.columns(ds))
	}
	return f.encode(w, map[string]any{
		"kind": ds.Kind,
		"data": data,
	})
}

// FormatError writes {"error": message}.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]any{"error": err.Error()})
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	Register(NewJSONFormatter())
}
