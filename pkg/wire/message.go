package wire

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrMissingService    = errors.New("message has no Service")
	ErrMissingZoneID     = errors.New("message has no ZID")
	ErrMissingProperties = errors.New("message has no PropertyList")
	ErrUnknownDeviceType = errors.New("unknown device type")
	ErrPowerLevelRange   = errors.New("power level out of range")
)

// Message is the envelope shared by every request, response and push.
//
// Optional fields are pointers or omitempty so that the same type encodes
// requests without stray keys and decodes any response shape.
type Message struct {
	ID           int64         `json:"ID"`
	Service      Service       `json:"Service"`
	ZoneID       *int          `json:"ZID,omitempty"`
	PropertyList *PropertyList `json:"PropertyList,omitempty"`
	ZoneList     []ZoneRef     `json:"ZoneList,omitempty"`
	MACAddress   string        `json:"MACAddress,omitempty"`

	// Status, ErrorCode and ErrorText are only present on replies.
	Status    string `json:"Status,omitempty"`
	ErrorCode *int   `json:"ErrorCode,omitempty"`
	ErrorText string `json:"ErrorText,omitempty"`
}

// PropertyList carries zone properties. Requests set only the property
// being changed; reports carry all of them.
type PropertyList struct {
	DeviceType string `json:"DeviceType,omitempty"`
	Name       string `json:"Name,omitempty"`
	Power      *bool  `json:"Power,omitempty"`
	PowerLevel *int   `json:"PowerLevel,omitempty"`
}

// ZoneRef is one entry of a ListZones reply.
type ZoneRef struct {
	ZoneID int `json:"ZID"`
}

// ZoneChange is the resulting zone state after a ZonePropertiesChanged push.
type ZoneChange struct {
	ZoneID     int
	Power      bool
	PowerLevel int
}

// HasZoneID returns true if the message addresses a zone.
func (m *Message) HasZoneID() bool {
	return m.ZoneID != nil
}

// Zone returns the zone ID or ErrMissingZoneID.
func (m *Message) Zone() (int, error) {
	if m.ZoneID == nil {
		return 0, ErrMissingZoneID
	}
	return *m.ZoneID, nil
}

// Err returns a *StatusError if the hub reported a failure, nil otherwise.
func (m *Message) Err() error {
	if m.Status == "" || m.Status == StatusSuccess {
		return nil
	}
	se := &StatusError{Service: m.Service, Status: m.Status, Text: m.ErrorText}
	if m.ErrorCode != nil {
		se.Code = *m.ErrorCode
	}
	return se
}

// DeviceState decodes a ReportZoneProperties reply.
func (m *Message) DeviceState() (DeviceState, error) {
	zid, err := m.Zone()
	if err != nil {
		return DeviceState{}, err
	}
	if m.PropertyList == nil {
		return DeviceState{}, fmt.Errorf("zone %d: %w", zid, ErrMissingProperties)
	}
	p := m.PropertyList

	kind, err := ParseDeviceKind(p.DeviceType)
	if err != nil {
		return DeviceState{}, fmt.Errorf("zone %d: %w", zid, err)
	}

	state := DeviceState{
		ZoneID: zid,
		Name:   p.Name,
		Kind:   kind,
	}
	if p.Power != nil {
		state.Power = *p.Power
	}
	if p.PowerLevel != nil {
		if *p.PowerLevel < MinPowerLevel || *p.PowerLevel > MaxPowerLevel {
			return DeviceState{}, fmt.Errorf("zone %d: %w: %d", zid, ErrPowerLevelRange, *p.PowerLevel)
		}
		state.PowerLevel = *p.PowerLevel
	}
	return state, nil
}

// ZoneChange decodes a ZonePropertiesChanged push on top of prev, the last
// known state of the zone. Properties absent from the push keep their
// values from prev; pass a zero ZoneChange when nothing is known.
func (m *Message) ZoneChange(prev ZoneChange) (ZoneChange, error) {
	zid, err := m.Zone()
	if err != nil {
		return ZoneChange{}, err
	}
	change := prev
	change.ZoneID = zid
	if p := m.PropertyList; p != nil {
		if p.Power != nil {
			change.Power = *p.Power
		}
		if p.PowerLevel != nil {
			change.PowerLevel = *p.PowerLevel
		}
	}
	return change, nil
}

// ZoneIDs decodes a ListZones reply. An empty list is valid.
func (m *Message) ZoneIDs() []int {
	ids := make([]int, 0, len(m.ZoneList))
	for _, z := range m.ZoneList {
		ids = append(ids, z.ZoneID)
	}
	return ids
}
