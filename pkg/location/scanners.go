package location

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// getWiFiAccessPoints retrieves nearby WiFi access points using nmcli.
func getWiFiAccessPoints(ctx context.Context) ([]maps.WiFiAccessPoint, error) {
	output, err := runTool(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseWiFiAccessPoints(string(output))
}

// getCellTowers retrieves the serving cell tower using mmcli for the given modem index.
func getCellTowers(ctx context.Context, modemIndex int) ([]maps.CellTower, error) {
	output, err := runTool(ctx, "mmcli", "-m", strconv.Itoa(modemIndex), "--output-keyvalue")
	if err != nil {
		return nil, err
	}
	return parseCellTowers(string(output))
}

func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}
	output, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return output, nil
}

// parseWiFiAccessPoints reads nmcli terse output. BSSID colons are escaped
// there (00\:14\:22...), so the signal is the field after the last bare colon.
func parseWiFiAccessPoints(output string) ([]maps.WiFiAccessPoint, error) {
	var wifiAPs []maps.WiFiAccessPoint
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := lastUnescapedColon(line)
		if idx < 0 {
			continue
		}
		macAddress := strings.ReplaceAll(line[:idx], `\:`, ":")
		if !isValidMAC(macAddress) {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
		if err != nil {
			continue
		}
		wifiAPs = append(wifiAPs, maps.WiFiAccessPoint{
			MACAddress:     macAddress,
			SignalStrength: float64(signal),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan nmcli output: %w", err)
	}
	return wifiAPs, nil
}

func lastUnescapedColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// parseCellTowers reads mmcli key-value output.
func parseCellTowers(output string) ([]maps.CellTower, error) {
	var cellTower maps.CellTower
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "modem.3gpp.mcc":
			if mcc, err := strconv.Atoi(value); err == nil {
				cellTower.MobileCountryCode = mcc
			}
		case "modem.3gpp.mnc":
			if mnc, err := strconv.Atoi(value); err == nil {
				cellTower.MobileNetworkCode = mnc
			}
		case "modem.3gpp.lac":
			if lac, err := strconv.ParseInt(value, 16, 32); err == nil {
				cellTower.LocationAreaCode = int(lac)
			}
		case "modem.3gpp.cid":
			if cid, err := strconv.ParseInt(value, 16, 32); err == nil {
				cellTower.CellID = int(cid)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan mmcli output: %w", err)
	}

	if cellTower.MobileCountryCode == 0 || cellTower.MobileNetworkCode == 0 {
		return nil, errors.New("incomplete cell tower data")
	}
	return []maps.CellTower{cellTower}, nil
}

// isValidMAC checks if the MAC address is in a valid format (e.g., "00:14:22:01:23:45").
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
