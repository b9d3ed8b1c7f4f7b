package wire

import "fmt"

// Power level bounds as reported by the hub.
const (
	MinPowerLevel = 0
	MaxPowerLevel = 100
)

// DeviceKind is the kind of load behind a zone.
type DeviceKind uint8

const (
	// DeviceKindSwitch is an on/off load.
	DeviceKindSwitch DeviceKind = iota + 1

	// DeviceKindDimmer is a load with a 0..100 power level.
	DeviceKindDimmer
)

// Wire names of the device kinds.
const (
	deviceTypeSwitch = "Switch"
	deviceTypeDimmer = "Dimmer"
)

// String returns the wire name of the kind.
func (k DeviceKind) String() string {
	switch k {
	case DeviceKindSwitch:
		return deviceTypeSwitch
	case DeviceKindDimmer:
		return deviceTypeDimmer
	default:
		return "Unknown"
	}
}

// ParseDeviceKind maps a DeviceType property to a DeviceKind.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch s {
	case deviceTypeSwitch:
		return DeviceKindSwitch, nil
	case deviceTypeDimmer:
		return DeviceKindDimmer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDeviceType, s)
	}
}

// DeviceState is a snapshot of one zone, decoded fresh from each report.
type DeviceState struct {
	ZoneID     int
	Name       string
	Kind       DeviceKind
	Power      bool
	PowerLevel int
}

// String returns a compact description for logs and the shell.
func (s DeviceState) String() string {
	power := "off"
	if s.Power {
		power = "on"
	}
	if s.Kind == DeviceKindDimmer {
		return fmt.Sprintf("zone %d %q (%s) %s %d%%", s.ZoneID, s.Name, s.Kind, power, s.PowerLevel)
	}
	return fmt.Sprintf("zone %d %q (%s) %s", s.ZoneID, s.Name, s.Kind, power)
}
