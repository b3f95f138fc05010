package location

import (
	"context"
	"io"

	"github.com/tarm/serial"
)

// DeviceSensorProvider is responsible for retrieving location data from a GPS device connected via serial port.
type DeviceSensorProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	open     func(*serial.Config) (io.ReadCloser, error)
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:     port,
		baudRate: baudRate,
		open: func(c *serial.Config) (io.ReadCloser, error) {
			return serial.OpenPort(c)
		},
	}
}

type fixResult struct {
	loc Location
	err error
}

// GetLocation reads GPS data from the device and returns the device's location.
// The port is closed when ctx is done, which unblocks a pending read.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Location, error) {
	port, err := d.open(&serial.Config{Name: d.port, Baud: d.baudRate})
	if err != nil {
		return Location{}, err
	}
	defer port.Close()

	result := make(chan fixResult, 1)
	go func() {
		loc, err := ReadFix(port)
		result <- fixResult{loc: loc, err: err}
	}()

	select {
	case r := <-result:
		return r.loc, r.err
	case <-ctx.Done():
		port.Close()
		<-result
		return Location{}, ctx.Err()
	}
}

// Close is a no-op; the port is opened per reading.
func (d *DeviceSensorProvider) Close() error {
	return nil
}
