package deviceinfo

import (
	"net/http"
	"strings"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/internal/models"
)

// Headers holds the transport headers the server can observe for a write.
// Empty values mean the header was absent.
type Headers struct {
	UserAgent      string
	AcceptLanguage string
}

// FromHTTP extracts the relevant headers from an HTTP request.
func FromHTTP(h http.Header) Headers {
	return Headers{
		UserAgent:      h.Get("User-Agent"),
		AcceptLanguage: h.Get("Accept-Language"),
	}
}

// ServerUserAgent is the user agent as observed by the server.
func (h Headers) ServerUserAgent() string {
	if h.UserAgent == "" {
		return constants.Unknown
	}
	return h.UserAgent
}

// ServerLanguage is the first entry of the accept-language header.
func (h Headers) ServerLanguage() string {
	if h.AcceptLanguage == "" {
		return constants.Unknown
	}
	language, _, _ := strings.Cut(h.AcceptLanguage, ",")
	if language == "" {
		return constants.Unknown
	}
	return language
}

// Merge returns the client device info with userAgent and language replaced by the
// server-observed values. All other fields are kept as the client sent them.
// The client map is not modified.
func Merge(client models.DeviceAttributes, headers Headers) models.DeviceAttributes {
	merged := client.Clone()
	merged["userAgent"] = headers.ServerUserAgent()
	merged["language"] = headers.ServerLanguage()
	return merged
}
