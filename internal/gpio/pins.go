package gpio

import (
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BirchJD/RPi-433MHz/internal/pulse"
)

var initOnce struct {
	sync.Once
	err error
}

// Init loads the periph host drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initOnce.err = fmt.Errorf("failed to initialize periph host: %w", err)
		}
	})
	return initOnce.err
}

// ParsePull converts a configuration string to a periph pull setting.
func ParsePull(s string) (gpio.Pull, error) {
	switch strings.ToLower(s) {
	case "up", "":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "none", "float":
		return gpio.Float, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("unknown pull %q, expected up, down or none", s)
	}
}

// ToLevel converts a periph level.
func ToLevel(l gpio.Level) pulse.Level {
	if l == gpio.High {
		return pulse.High
	}
	return pulse.Low
}

// FromLevel converts to a periph level.
func FromLevel(l pulse.Level) gpio.Level {
	return l == pulse.High
}

// OpenInput looks up a pin by name ("GPIO26", "26") and configures it as an
// input. With edges set the pin also reports both edges to WaitForEdge.
func OpenInput(name string, pull gpio.Pull, edges bool) (gpio.PinIO, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find GPIO pin %s", name)
	}

	edge := gpio.NoEdge
	if edges {
		edge = gpio.BothEdges
	}
	if err := pin.In(pull, edge); err != nil {
		return nil, fmt.Errorf("failed to set pin %s as input: %w", name, err)
	}
	return pin, nil
}

// Output drives a periph output pin with pulse levels.
type Output struct {
	pin gpio.PinOut
}

// OpenOutput looks up a pin by name and configures it as an output at the
// initial level.
func OpenOutput(name string, initial pulse.Level) (*Output, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find GPIO pin %s", name)
	}
	out := &Output{pin: pin}
	if err := out.Out(initial); err != nil {
		return nil, fmt.Errorf("failed to set pin %s as output: %w", name, err)
	}
	return out, nil
}

// NewOutput wraps an already configured periph output.
func NewOutput(pin gpio.PinOut) *Output {
	return &Output{pin: pin}
}

func (o *Output) Out(level pulse.Level) error {
	return o.pin.Out(FromLevel(level))
}

// Halt stops driving the pin.
func (o *Output) Halt() error {
	return o.pin.Halt()
}
