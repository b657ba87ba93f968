// Package serialport adapts the physical serial link to the feeder's
// transport sink. The core only ever sees an io.WriteCloser.
package serialport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Open opens the named port at the given line rate.
func Open(port string, baud int) (io.WriteCloser, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}
	return p, nil
}

// List enumerates the serial ports visible on this system. Used by the
// configuration surface only; the feeder loop never enumerates.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}
