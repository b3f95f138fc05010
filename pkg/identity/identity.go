package identity

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/shirou/gopsutil/host"
)

// AgentName prefixes the user agent reported by this host.
const AgentName = "location-recorder"

// DeviceInfoInterface defines methods for managing the reporting device's description.
type DeviceInfoInterface interface {
	LoadDeviceInfo(ctx context.Context) error
	GetDeviceInfo() models.DeviceInfo
}

// DeviceInfo manages the device description and its associated file operations.
type DeviceInfo struct {
	DeviceInfoFile string
	Info           models.DeviceInfo
	fileOps        file.FileOperations

	hostInfo  func(ctx context.Context) (*host.InfoStat, error)
	lookupEnv func(string) (string, bool)
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) *DeviceInfo {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		hostInfo:       host.InfoWithContext,
		lookupEnv:      os.LookupEnv,
	}
}

// LoadDeviceInfo reads the device description from the file. When the file does not
// exist yet the host is inspected and the result is written back for later runs.
func (d *DeviceInfo) LoadDeviceInfo(ctx context.Context) error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Info)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	info, err := d.Detect(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect device info: %w", err)
	}
	d.Info = info

	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Info)
}

// GetDeviceInfo returns the current device description.
func (d *DeviceInfo) GetDeviceInfo() models.DeviceInfo {
	return d.Info
}

// Detect describes this host the way a browser client describes itself.
func (d *DeviceInfo) Detect(ctx context.Context) (models.DeviceInfo, error) {
	stat, err := d.hostInfo(ctx)
	if err != nil {
		return models.DeviceInfo{}, err
	}

	arch := stat.KernelArch
	if arch == "" {
		arch = runtime.GOARCH
	}

	return models.DeviceInfo{
		UserAgent:  fmt.Sprintf("%s (%s %s; %s)", AgentName, stat.Platform, stat.PlatformVersion, arch),
		Platform:   stat.Platform,
		Language:   d.language(),
		Timezone:   d.timezone(),
		DeviceType: "desktop",
		Browser:    constants.Unknown,
		OS:         operatingSystem(stat.OS),
	}, nil
}

// operatingSystem maps a GOOS-style name onto the closed set used by device info.
func operatingSystem(goos string) string {
	switch goos {
	case "windows":
		return constants.OSWindows
	case "darwin":
		return constants.OSMacOS
	case "linux":
		return constants.OSLinux
	case "android":
		return constants.OSAndroid
	case "ios":
		return constants.OSIOS
	}
	return constants.Unknown
}

// language turns a POSIX locale such as en_US.UTF-8 into a BCP 47 tag.
func (d *DeviceInfo) language() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		locale, ok := d.lookupEnv(key)
		if !ok || locale == "" || locale == "C" || locale == "POSIX" {
			continue
		}
		locale, _, _ = strings.Cut(locale, ".")
		locale, _, _ = strings.Cut(locale, "@")
		return strings.ReplaceAll(locale, "_", "-")
	}
	return constants.Unknown
}

func (d *DeviceInfo) timezone() string {
	if tz, ok := d.lookupEnv("TZ"); ok && tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if name := time.Local.String(); name != "Local" {
		return name
	}
	return "UTC"
}
