package constants

// Unknown is stored whenever a device attribute cannot be detected.
const Unknown = "Unknown"

// Browser names reported in DeviceInfo.
const (
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
)

// Operating system names reported in DeviceInfo.
const (
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSAndroid = "Android"
	OSIOS     = "iOS"
)

// File store layout
const (
	DefaultDataDir    = "data"
	LocationsFileName = "locations.json"
)

// Collection store defaults, matching the layout used by the web deployment.
const (
	DefaultDatabaseName   = "location-app"
	DefaultCollectionName = "locations"
)

// Response messages
const (
	MessageLocationSaved   = "Location saved successfully"
	MessageInvalidLocation = "Invalid location data"
	MessageSaveFailed      = "Failed to save location"
)
