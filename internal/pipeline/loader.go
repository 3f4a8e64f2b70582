package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/urd/internal/logging"
	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/validate"
)

// ErrNotArray is returned when the catalog document is not a JSON array
var ErrNotArray = errors.New("catalog must be a JSON array of objects")

// Input is a validated catalog ready for the engines
type Input struct {
	Source  string
	Catalog model.Catalog
	Keys    validate.Keys // Source key names, reused when writing output
}

// ReadRecords decodes a JSON array of objects. Numbers are kept as
// json.Number so pass-through values round-trip unchanged.
func ReadRecords(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return records, nil
}

// Load reads and validates the catalog at path. "-" reads stdin.
func (p *Pipeline) Load(path string) (*Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}

	catalog, keys, err := p.validator.Catalog(records)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	logging.Debug("catalog loaded", "source", path, "events", len(catalog))
	return &Input{Source: path, Catalog: catalog, Keys: keys}, nil
}
