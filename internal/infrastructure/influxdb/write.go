package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePress records a key press.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - pageID: Page that was active when the key went down
//   - slot: Key index on the panel
func (c *Client) WritePress(pageID string, slot int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"press",
		map[string]string{
			"page_id": pageID,
		},
		map[string]interface{}{
			"slot": slot,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDispatch records the outcome of an action dispatch.
//
// Parameters:
//   - pluginID: Plugin that ran
//   - pageID: Page the pressed button lives on
//   - slot: Key index
//   - ok: Whether the execution succeeded
//   - duration: Wall time of the execution
func (c *Client) WriteDispatch(pluginID, pageID string, slot int, ok bool, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"plugin_id": pluginID,
			"page_id":   pageID,
			"ok":        boolTag(ok),
		},
		map[string]interface{}{
			"slot":        slot,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectivity records a panel connectivity transition.
//
// Parameters:
//   - state: New synchronizer state (disconnected, connecting, connected)
func (c *Client) WriteConnectivity(state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connectivity",
		map[string]string{
			"state": state,
		},
		map[string]interface{}{
			"value": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}

func boolTag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
