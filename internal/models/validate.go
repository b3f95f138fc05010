package models

import (
	"encoding/json"
	"math"
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid location data: " + e.Reason
	}
	return "invalid location data: " + e.Field + " " + e.Reason
}

// Validate decodes an untrusted payload into a LocationData.
func Validate(payload []byte) (LocationData, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return LocationData{}, &ValidationError{Reason: "payload is not a JSON object"}
	}
	if doc == nil {
		return LocationData{}, &ValidationError{Reason: "payload is not a JSON object"}
	}
	return ValidateDocument(doc)
}

// ValidateDocument checks the required fields of an already decoded document and
// splits it into the typed subset and the pass-through remainder.
// Nested device info fields are accepted as they are.
func ValidateDocument(doc map[string]any) (LocationData, error) {
	latitude, err := finiteNumber(doc, FieldLatitude)
	if err != nil {
		return LocationData{}, err
	}

	longitude, err := finiteNumber(doc, FieldLongitude)
	if err != nil {
		return LocationData{}, err
	}

	timestamp, ok := doc[FieldTimestamp].(string)
	if !ok || timestamp == "" {
		return LocationData{}, &ValidationError{Field: FieldTimestamp, Reason: "must be a non-empty string"}
	}

	deviceInfo, ok := doc[FieldDeviceInfo].(map[string]any)
	if !ok {
		return LocationData{}, &ValidationError{Field: FieldDeviceInfo, Reason: "must be an object"}
	}

	var extra map[string]any
	for k, v := range doc {
		switch k {
		case FieldLatitude, FieldLongitude, FieldTimestamp, FieldDeviceInfo:
			continue
		}
		if extra == nil {
			extra = make(map[string]any, len(doc))
		}
		extra[k] = v
	}

	return LocationData{
		Latitude:   latitude,
		Longitude:  longitude,
		Timestamp:  timestamp,
		DeviceInfo: DeviceAttributes(deviceInfo),
		Extra:      extra,
	}, nil
}

func finiteNumber(doc map[string]any, field string) (float64, error) {
	var v float64
	switch n := doc[field].(type) {
	case float64:
		v = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &ValidationError{Field: field, Reason: "must be a finite number"}
		}
		v = f
	default:
		return 0, &ValidationError{Field: field, Reason: "must be a finite number"}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	return v, nil
}
