package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zonehub/zonehub-go/internal/hubsim"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// zoneFile is the YAML layout of a -zones file:
//
//	mac: 00:26:EC:01:02:03
//	zones:
//	  - id: 0
//	    name: Porch
//	    kind: switch
//	  - id: 3
//	    name: Den
//	    kind: dimmer
//	    power: true
//	    level: 40
type zoneFile struct {
	MAC   string      `yaml:"mac"`
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Power bool   `yaml:"power"`
	Level int    `yaml:"level"`
}

// defaultZones is used when no zone file is given.
func defaultZones() []hubsim.Zone {
	return []hubsim.Zone{
		{ID: 0, Name: "Porch", Kind: wire.DeviceKindSwitch},
		{ID: 1, Name: "Kitchen", Kind: wire.DeviceKindDimmer, Power: true, PowerLevel: 80},
		{ID: 3, Name: "Den", Kind: wire.DeviceKindDimmer},
	}
}

// loadZones reads a zone file.
func loadZones(path string) (string, []hubsim.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read zones: %w", err)
	}
	return parseZones(data)
}

func parseZones(data []byte) (string, []hubsim.Zone, error) {
	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("parse zones: %w", err)
	}

	seen := make(map[int]bool, len(f.Zones))
	zones := make([]hubsim.Zone, 0, len(f.Zones))
	for _, e := range f.Zones {
		if e.ID < 0 {
			return "", nil, fmt.Errorf("zone %q: negative id %d", e.Name, e.ID)
		}
		if seen[e.ID] {
			return "", nil, fmt.Errorf("zone %d defined twice", e.ID)
		}
		seen[e.ID] = true

		kind, err := parseKind(e.Kind)
		if err != nil {
			return "", nil, fmt.Errorf("zone %d: %w", e.ID, err)
		}
		if e.Level < wire.MinPowerLevel || e.Level > wire.MaxPowerLevel {
			return "", nil, fmt.Errorf("zone %d: level %d out of range", e.ID, e.Level)
		}

		z := hubsim.Zone{ID: e.ID, Name: e.Name, Kind: kind, Power: e.Power}
		if kind == wire.DeviceKindDimmer {
			z.PowerLevel = e.Level
		}
		zones = append(zones, z)
	}
	return f.MAC, zones, nil
}

func parseKind(s string) (wire.DeviceKind, error) {
	switch strings.ToLower(s) {
	case "", "switch":
		return wire.DeviceKindSwitch, nil
	case "dimmer":
		return wire.DeviceKindDimmer, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (use: switch, dimmer)", s)
	}
}
