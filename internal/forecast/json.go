package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes the report as an object keyed by horizon label, keeping
// the report order of the horizons.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.Horizons {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h.Label())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", h.Label(), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a report written by MarshalJSON, preserving key order.
func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("report must be a JSON object")
	}

	var horizons []Horizon
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected report key %v", tok)
		}
		var h Horizon
		if err := dec.Decode(&h); err != nil {
			return fmt.Errorf("decoding %s: %w", label, err)
		}
		if h.Label() != label {
			return fmt.Errorf("horizon %s reports a prediction period of %d months", label, h.PredictionPeriod)
		}
		horizons = append(horizons, h)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	r.Horizons = horizons
	return nil
}
