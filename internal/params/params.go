// =============================================================================
// ecvt-build - Parameter File Loader
// =============================================================================
//
// The parameter file is the JSON document OpenSCAD reads with -p:
//
//   {
//     "parameterSets": {
//       "default": { "gear_teeth": "24", ... },
//       "small":   { ... }
//     },
//     "fileFormatVersion": "1"
//   }
//
// Only the names of the parameter sets matter to the build. Their contents
// are kept as raw JSON and never interpreted. Names are returned in the order
// they appear in the file so console output and fail-fast ordering follow the
// file rather than Go's randomized map iteration.
//
// =============================================================================

package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// SetsKey is the top-level key holding the parameter sets.
const SetsKey = "parameterSets"

// Document is a loaded parameter file.
type Document struct {
	// Path is the file the document was read from.
	Path string

	// Names lists the parameter sets in file order.
	Names []string

	// Sets maps each name to its untouched JSON definition.
	Sets map[string]json.RawMessage
}

// Load reads and decodes the parameter file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes a parameter document.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}

	raw, ok := top[SetsKey]
	if !ok {
		return nil, fmt.Errorf("missing %q key", SetsKey)
	}

	names, sets, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", SetsKey, err)
	}
	return &Document{Names: names, Sets: sets}, nil
}

// decodeOrderedObject decodes a JSON object keeping its key order.
func decodeOrderedObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected an object, got %v", tok)
	}

	var names []string
	sets := make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		if _, dup := sets[name]; dup {
			return nil, nil, fmt.Errorf("duplicate parameter set %q", name)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("parameter set %q: %w", name, err)
		}

		names = append(names, name)
		sets[name] = value
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}

	return names, sets, nil
}
