// Package wire defines the JSON wire format spoken by the zone hub.
//
// Every message is a single JSON object without embedded newlines. All
// messages carry a numeric diagnostic ID and a Service tag naming the
// command or report kind; the remaining fields depend on the service:
//
//	{"ID":12,"Service":"SetZoneProperties","ZID":7,"PropertyList":{"PowerLevel":40}}
//	{"ID":0,"Service":"ZonePropertiesChanged","ZID":7,"PropertyList":{"Power":true,"PowerLevel":40}}
//
// # Correlation
//
// The hub does not echo the request ID in its replies. Responses are
// matched to requests by kind: zone reports by ZID, zone lists and system
// info by service alone. The ID is only useful for reading captures.
//
// # Heartbeats
//
// The hub periodically writes a single 0x00 byte to keep the socket busy.
// Heartbeats are not messages; the transport discards them before decoding.
package wire
