package hub

import (
	"errors"

	"github.com/zonehub/zonehub-go/pkg/wire"
)

// dispatch routes one inbound message by its Service tag.
func (c *Controller) dispatch(msg *wire.Message) {
	switch msg.Service {
	case wire.ServiceReportZoneProperties:
		c.handleZoneReport(msg)
	case wire.ServiceZonePropertiesChanged:
		c.handleZoneChanged(msg)
	case wire.ServiceListZones:
		c.handleZoneList(msg)
	case wire.ServiceSystemInfo:
		c.handleSystemInfo(msg)
	case wire.ServiceSetZoneProperties:
		// Acknowledgement only; state arrives as a push.
		if err := msg.Err(); err != nil {
			c.logger.Warn("hub rejected command", "zone", zoneAttr(msg), "error", err)
		}
	default:
		if !msg.Service.IsKnown() {
			c.logger.Debug("ignoring unknown service", "service", msg.Service, "id", msg.ID)
			return
		}
		c.logger.Debug("ignoring message", "service", msg.Service, "id", msg.ID)
	}
}

func (c *Controller) handleZoneReport(msg *wire.Message) {
	zoneID, err := msg.Zone()
	if err != nil {
		c.logger.Warn("zone report without zone", "id", msg.ID)
		return
	}

	if err := msg.Err(); err != nil {
		if c.zones.Fail(zoneID, err) {
			c.updatePending()
		}
		c.logger.Debug("zone query failed", "zone", zoneID, "error", err)
		return
	}

	state, err := msg.DeviceState()
	switch {
	case errors.Is(err, wire.ErrUnknownDeviceType):
		c.logger.Warn("dropping report for unknown device type", "zone", zoneID, "error", err)
		return
	case err != nil:
		if c.zones.Fail(zoneID, err) {
			c.updatePending()
		}
		c.logger.Warn("invalid zone report", "zone", zoneID, "error", err)
		return
	}

	c.known[zoneID] = wire.ZoneChange{ZoneID: zoneID, Power: state.Power, PowerLevel: state.PowerLevel}

	if !c.zones.Resolve(zoneID, state) {
		c.logger.Debug("zone report with no pending query", "zone", zoneID)
		return
	}
	c.updatePending()
}

// handleZoneChanged forwards a push to the listener. Properties the push
// leaves out are taken from the last known state. Pushes never complete a
// pending query.
func (c *Controller) handleZoneChanged(msg *wire.Message) {
	zoneID, err := msg.Zone()
	if err != nil {
		c.logger.Warn("zone change without zone", "id", msg.ID)
		return
	}
	change, err := msg.ZoneChange(c.known[zoneID])
	if err != nil {
		return
	}
	c.known[zoneID] = change

	defer c.recoverListener("ZoneChanged")
	c.listener.ZoneChanged(change.ZoneID, change.Power, change.PowerLevel)
}

func (c *Controller) handleZoneList(msg *wire.Message) {
	if err := msg.Err(); err != nil {
		if c.zoneList.Fail(zoneListKey, err) {
			c.updatePending()
		}
		return
	}
	if c.zoneList.Resolve(zoneListKey, msg.ZoneIDs()) {
		c.updatePending()
	}
}

func (c *Controller) handleSystemInfo(msg *wire.Message) {
	if err := msg.Err(); err != nil {
		if c.identity.Fail(identityKey, err) {
			c.updatePending()
		}
		return
	}
	if msg.MACAddress == "" {
		c.logger.Debug("system info without MAC address", "id", msg.ID)
		return
	}
	if c.identity.Resolve(identityKey, msg.MACAddress) {
		c.updatePending()
	}
}

func zoneAttr(msg *wire.Message) any {
	if !msg.HasZoneID() {
		return nil
	}
	return *msg.ZoneID
}
