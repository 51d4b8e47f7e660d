package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// readDocument reads a whole input file, mapping the common failures onto
// the error taxonomy.
func readDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrEmptyFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrEmptyFile)
	}
	return data, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
}

// decodeError separates shape errors from syntax errors. what describes the
// expected top-level shape.
func decodeError(err error, what string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return fmt.Errorf("%w: %s", domain.ErrSchemaViolation, what)
		}
		return fmt.Errorf("%w: %s has type %s, expected %s", domain.ErrSchemaViolation, typeErr.Field, typeErr.Value, typeErr.Type)
	}
	return malformed(err)
}

// absent reports whether a raw value was missing or null.
func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object")
	}

	var (
		keys []string
		seen = make(map[string]bool)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key")
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func toInt64(v *float64) *int64 {
	if v == nil {
		return nil
	}
	ms := int64(math.Round(*v))
	return &ms
}
