package models

import (
	"encoding/json"
	"fmt"
)

// Field names of the persisted record.
const (
	FieldLatitude   = "latitude"
	FieldLongitude  = "longitude"
	FieldTimestamp  = "timestamp"
	FieldDeviceInfo = "deviceInfo"

	FieldAccuracy         = "accuracy"
	FieldAltitude         = "altitude"
	FieldAltitudeAccuracy = "altitudeAccuracy"
	FieldHeading          = "heading"
	FieldSpeed            = "speed"
)

// DeviceInfo describes the reporting client. It documents the shape producers send;
// stored records keep the device info as received (see DeviceAttributes).
type DeviceInfo struct {
	UserAgent        string `json:"userAgent"`
	Platform         string `json:"platform"`
	Language         string `json:"language"`
	ScreenWidth      int    `json:"screenWidth"`
	ScreenHeight     int    `json:"screenHeight"`
	ScreenColorDepth int    `json:"screenColorDepth"`
	Timezone         string `json:"timezone"`
	DeviceType       string `json:"deviceType"`
	IsMobile         bool   `json:"isMobile"`
	IsTablet         bool   `json:"isTablet"`
	Browser          string `json:"browser"`
	OS               string `json:"os"`
}

// Attributes converts the typed device info into the opaque form stored on a record.
func (d DeviceInfo) Attributes() DeviceAttributes {
	raw, err := json.Marshal(d)
	if err != nil {
		return DeviceAttributes{}
	}

	attrs := DeviceAttributes{}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return DeviceAttributes{}
	}
	return attrs
}

// DeviceAttributes is the device info object exactly as the client sent it.
// Its sub-fields are never validated.
type DeviceAttributes map[string]any

// String returns the attribute as a string, or "" when absent or not a string.
func (a DeviceAttributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Clone returns a shallow copy.
func (a DeviceAttributes) Clone() DeviceAttributes {
	out := make(DeviceAttributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Typed decodes the attributes into DeviceInfo on a best-effort basis.
func (a DeviceAttributes) Typed() (DeviceInfo, error) {
	var info DeviceInfo
	raw, err := json.Marshal(a)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, fmt.Errorf("device info does not match the documented shape: %w", err)
	}
	return info, nil
}

// LocationData is one reported fix. The required fields are typed; every other
// top-level field of the payload is carried verbatim in Extra.
type LocationData struct {
	Latitude   float64
	Longitude  float64
	Timestamp  string
	DeviceInfo DeviceAttributes
	Extra      map[string]any
}

// Float returns an optional numeric field. ok is false when the field is absent,
// null, or not a number.
func (l LocationData) Float(key string) (v float64, ok bool) {
	v, ok = l.Extra[key].(float64)
	return v, ok
}

// Document flattens the record into the map persisted by the backends.
func (l LocationData) Document() map[string]any {
	doc := make(map[string]any, len(l.Extra)+4)
	for k, v := range l.Extra {
		doc[k] = v
	}

	doc[FieldLatitude] = l.Latitude
	doc[FieldLongitude] = l.Longitude
	doc[FieldTimestamp] = l.Timestamp
	deviceInfo := map[string]any(l.DeviceInfo)
	if deviceInfo == nil {
		deviceInfo = map[string]any{}
	}
	doc[FieldDeviceInfo] = deviceInfo
	return doc
}

// MarshalJSON writes the flattened document.
func (l LocationData) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Document())
}

// UnmarshalJSON applies the same rules as Validate.
func (l *LocationData) UnmarshalJSON(data []byte) error {
	record, err := Validate(data)
	if err != nil {
		return err
	}
	*l = record
	return nil
}
