// Package influxdb provides the time-series history channel: key
// presses, action dispatch outcomes and panel connectivity transitions
// written to InfluxDB v2.
//
// Writes go through the non-blocking batched write API, so recording
// history costs the hot path nothing; failures surface asynchronously
// through an error callback. The whole integration is optional and
// off by default. When disabled in config, Connect returns ErrDisabled
// and the rest of the system runs unchanged.
//
// The Recorder bridges the in-process message bus to the write
// helpers; nothing else in the codebase writes history directly.
package influxdb
