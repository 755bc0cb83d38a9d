package service

// Broadcaster pushes wizard lifecycle events to the tool owner's dashboard
// connection (avoids an import cycle with the ws package)
type Broadcaster interface {
	BroadcastToDashboard(toolID string, msgType string, payload interface{})
}
