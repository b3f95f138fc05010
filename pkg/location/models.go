package location

// Location represents the geographical coordinates of a device.
// Optional readings are nil when the source does not report them.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64  // Metres, or HDOP for GPS fixes
	Altitude  *float64 // Metres above mean sea level
	Speed     *float64 // Metres per second
	Heading   *float64 // Degrees from true north
}
