package tailer

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/atikulmunna/uartwatch/internal/watcher"
)

// DefaultBaudRate matches the console of most embedded gateways.
const DefaultBaudRate = 115200

// OpenSerial opens the UART at port, which may be a glob such as
// /dev/ttyUSB*, using 8N1 framing. It returns the resolved device name.
func OpenSerial(port string, baud int) (io.ReadCloser, string, error) {
	dev, err := watcher.Resolve(port)
	if err != nil {
		return nil, "", err
	}
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(dev, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, "", fmt.Errorf("open serial port %s: %w", dev, err)
	}
	return p, dev, nil
}
