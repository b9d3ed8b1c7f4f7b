package wire

// Service identifies a command or report kind.
type Service string

const (
	// ServiceSetZoneProperties changes power or power level of a zone.
	// The hub acknowledges with a later ZonePropertiesChanged push.
	ServiceSetZoneProperties Service = "SetZoneProperties"

	// ServiceReportZoneProperties requests (and answers with) the full
	// property list of one zone.
	ServiceReportZoneProperties Service = "ReportZoneProperties"

	// ServiceListZones requests (and answers with) the zones known to the hub.
	ServiceListZones Service = "ListZones"

	// ServiceSystemInfo requests (and answers with) hub identity data.
	ServiceSystemInfo Service = "SystemInfo"

	// ServiceZonePropertiesChanged is pushed by the hub whenever a zone
	// changes, regardless of who changed it.
	ServiceZonePropertiesChanged Service = "ZonePropertiesChanged"
)

// String returns the service tag.
func (s Service) String() string {
	return string(s)
}

// IsKnown returns true if the service is one this package understands.
func (s Service) IsKnown() bool {
	switch s {
	case ServiceSetZoneProperties,
		ServiceReportZoneProperties,
		ServiceListZones,
		ServiceSystemInfo,
		ServiceZonePropertiesChanged:
		return true
	default:
		return false
	}
}
