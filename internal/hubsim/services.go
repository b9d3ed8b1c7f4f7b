package hubsim

import (
	"sort"

	"github.com/zonehub/zonehub-go/pkg/wire"
)

// handle applies a request and returns the replies for the requester.
// State changes are also broadcast as ZonePropertiesChanged.
func (h *Hub) handle(req *wire.Message) []*wire.Message {
	h.mu.Lock()
	if h.muted[req.Service] {
		h.mu.Unlock()
		return nil
	}

	var (
		replies []*wire.Message
		push    *wire.Message
	)

	switch req.Service {
	case wire.ServiceSetZoneProperties:
		reply, changed := h.setZoneProperties(req)
		replies = append(replies, reply)
		if changed != nil {
			push = changeMessage(changed)
		}

	case wire.ServiceReportZoneProperties:
		replies = append(replies, h.reportZoneProperties(req))

	case wire.ServiceListZones:
		ids := make([]int, 0, len(h.zones))
		for id := range h.zones {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		refs := make([]wire.ZoneRef, len(ids))
		for i, id := range ids {
			refs[i] = wire.ZoneRef{ZoneID: id}
		}
		replies = append(replies, &wire.Message{
			ID:       req.ID,
			Service:  wire.ServiceListZones,
			ZoneList: refs,
			Status:   wire.StatusSuccess,
		})

	case wire.ServiceSystemInfo:
		replies = append(replies, &wire.Message{
			ID:         req.ID,
			Service:    wire.ServiceSystemInfo,
			MACAddress: h.mac,
			Status:     wire.StatusSuccess,
		})
	}
	h.mu.Unlock()

	if push != nil {
		if err := h.Broadcast(push); err != nil {
			h.logger.Debug("push failed", "error", err)
		}
	}
	return replies
}

func (h *Hub) setZoneProperties(req *wire.Message) (*wire.Message, *Zone) {
	z, errReply := h.lookupZone(req)
	if errReply != nil {
		return errReply, nil
	}
	if req.PropertyList == nil {
		return errorReply(req, ErrorCodeInvalidProperty, "missing PropertyList"), nil
	}

	props := req.PropertyList
	if props.PowerLevel != nil {
		level := *props.PowerLevel
		if z.Kind != wire.DeviceKindDimmer || level < wire.MinPowerLevel || level > wire.MaxPowerLevel {
			return errorReply(req, ErrorCodeInvalidProperty, "invalid PowerLevel"), nil
		}
		z.PowerLevel = level
	}
	if props.Power != nil {
		z.Power = *props.Power
	}

	zc := *z
	return &wire.Message{
		ID:      req.ID,
		Service: wire.ServiceSetZoneProperties,
		ZoneID:  req.ZoneID,
		Status:  wire.StatusSuccess,
	}, &zc
}

func (h *Hub) reportZoneProperties(req *wire.Message) *wire.Message {
	z, errReply := h.lookupZone(req)
	if errReply != nil {
		return errReply
	}

	id := z.ID
	power := z.Power
	props := &wire.PropertyList{
		DeviceType: z.Kind.String(),
		Name:       z.Name,
		Power:      &power,
	}
	if z.Kind == wire.DeviceKindDimmer {
		level := z.PowerLevel
		props.PowerLevel = &level
	}
	return &wire.Message{
		ID:           req.ID,
		Service:      wire.ServiceReportZoneProperties,
		ZoneID:       &id,
		PropertyList: props,
		Status:       wire.StatusSuccess,
	}
}

// lookupZone must be called with h.mu held.
func (h *Hub) lookupZone(req *wire.Message) (*Zone, *wire.Message) {
	if req.ZoneID == nil {
		return nil, errorReply(req, ErrorCodeInvalidZone, "missing ZID")
	}
	z, ok := h.zones[*req.ZoneID]
	if !ok {
		return nil, errorReply(req, ErrorCodeInvalidZone, "invalid ZID")
	}
	return z, nil
}

func errorReply(req *wire.Message, code int, text string) *wire.Message {
	return &wire.Message{
		ID:        req.ID,
		Service:   req.Service,
		ZoneID:    req.ZoneID,
		Status:    "Error",
		ErrorCode: &code,
		ErrorText: text,
	}
}

func changeMessage(z *Zone) *wire.Message {
	id := z.ID
	power := z.Power
	props := &wire.PropertyList{Power: &power}
	if z.Kind == wire.DeviceKindDimmer {
		level := z.PowerLevel
		props.PowerLevel = &level
	}
	return &wire.Message{
		Service:      wire.ServiceZonePropertiesChanged,
		ZoneID:       &id,
		PropertyList: props,
	}
}
