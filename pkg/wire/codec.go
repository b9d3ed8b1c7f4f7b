package wire

import (
	"encoding/json"
	"fmt"
)

// Encode encodes a message to a single-line JSON object.
func Encode(m *Message) ([]byte, error) {
	if m.Service == "" {
		return nil, ErrMissingService
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Service, err)
	}
	return data, nil
}

// Decode decodes one JSON object into a message.
// Unknown or missing services decode successfully (a missing tag leaves
// Service empty); classification is the caller's job.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &m, nil
}

// NewSetPower builds a SetZoneProperties request switching a zone on or off.
func NewSetPower(id int64, zoneID int, on bool) *Message {
	return &Message{
		ID:           id,
		Service:      ServiceSetZoneProperties,
		ZoneID:       &zoneID,
		PropertyList: &PropertyList{Power: &on},
	}
}

// NewSetPowerLevel builds a SetZoneProperties request changing a dimmer level.
func NewSetPowerLevel(id int64, zoneID int, level int) *Message {
	return &Message{
		ID:           id,
		Service:      ServiceSetZoneProperties,
		ZoneID:       &zoneID,
		PropertyList: &PropertyList{PowerLevel: &level},
	}
}

// NewReportZoneProperties builds a zone state query.
func NewReportZoneProperties(id int64, zoneID int) *Message {
	return &Message{
		ID:      id,
		Service: ServiceReportZoneProperties,
		ZoneID:  &zoneID,
	}
}

// NewListZones builds a zone list query.
func NewListZones(id int64) *Message {
	return &Message{ID: id, Service: ServiceListZones}
}

// NewSystemInfo builds a hub identity query.
func NewSystemInfo(id int64) *Message {
	return &Message{ID: id, Service: ServiceSystemInfo}
}
