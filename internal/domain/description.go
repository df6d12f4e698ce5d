package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Keys requested from the garment describer.
const (
	FieldOverallView          = "overall_view"
	FieldGarmentType          = "garment_type"
	FieldCutAndFit            = "cut_and_fit"
	FieldGarmentStructure     = "garment_structure"
	FieldTexturesAndMaterials = "textures_and_materials"
	FieldColorAndPattern      = "color_and_pattern"
	FieldLighting             = "lighting"
	FieldCameraConfig         = "camera_config"
	FieldDepthOfField         = "depth_of_field"
	FieldNaturalImperfections = "natural_imperfections"
	FieldEnvironment          = "environment_and_background"
	FieldAtmosphere           = "atmosphere"
	FieldPhotographicStyle    = "photographic_style"
	FieldDominantColorHex     = "dominant_color_hex"
	FieldSecondaryColorsHex   = "secondary_colors_hex"
)

// DescriptionField is a single named value of a GarmentDescription.
type DescriptionField struct {
	Key   string
	Value any
}

// GarmentDescription is the structured description returned by the describer. Field
// order is kept as received so consumers can iterate deterministically. Values are
// untrusted model output: strings, numbers, arrays or nested objects.
type GarmentDescription struct {
	fields []DescriptionField
}

// NewGarmentDescription builds a description from fields in order. A repeated key
// replaces the earlier value in place.
func NewGarmentDescription(fields ...DescriptionField) GarmentDescription {
	var d GarmentDescription
	for _, f := range fields {
		d.set(f.Key, f.Value)
	}
	return d
}

func (d *GarmentDescription) set(key string, value any) {
	for i := range d.fields {
		if d.fields[i].Key == key {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, DescriptionField{Key: key, Value: value})
}

// Fields returns a copy of the fields in the order they were received.
func (d GarmentDescription) Fields() []DescriptionField {
	out := make([]DescriptionField, len(d.fields))
	copy(out, d.fields)
	return out
}

// Len returns the number of fields.
func (d GarmentDescription) Len() int {
	return len(d.fields)
}

// Value returns the raw value stored under key.
func (d GarmentDescription) Value(key string) (any, bool) {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Text returns the trimmed string stored under key, or "" when the key is absent or
// not a string.
func (d GarmentDescription) Text(key string) string {
	v, ok := d.Value(key)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// DominantColorHex returns the dominant color as reported by the model, unvalidated.
func (d GarmentDescription) DominantColorHex() string {
	return d.Text(FieldDominantColorHex)
}

// SecondaryColorsHex returns the non-empty string entries of the secondary colors field.
// A bare string is treated as a single entry.
func (d GarmentDescription) SecondaryColorsHex() []string {
	v, ok := d.Value(FieldSecondaryColorsHex)
	if !ok {
		return nil
	}
	var out []string
	switch vals := v.(type) {
	case string:
		if s := strings.TrimSpace(vals); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range vals {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case []string:
		for _, s := range vals {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// MarshalJSON encodes the description as an object with keys in the order they were received.
func (d GarmentDescription) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts exactly one JSON object and records its keys in order.
func (d *GarmentDescription) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("garment description: expected a JSON object")
	}
	var parsed GarmentDescription
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("garment description: unexpected key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("garment description: field %q: %w", key, err)
		}
		parsed.set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("garment description: trailing data after object")
	}
	*d = parsed
	return nil
}
