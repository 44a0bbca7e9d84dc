// Package broadcast fans room notifications out to every connection
// subscribed to that room.
//
// Each room gets a Hub running its own goroutine; the HubManager owns the
// hubs. Publishers encode a model.Event once and hand the frame to the hub
// for the event's room, which preserves publish order per room.
package broadcast
