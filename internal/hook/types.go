// Package hook lets external executables react to counted reps: each hook
// lives in its own directory with a hook.json manifest and receives rep
// events as JSON on stdin.
package hook

// Manifest describes a hook's metadata and entry point.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events,omitempty"`
}

// Event is what a hook receives on stdin for every counted rep.
type Event struct {
	Type        string  `json:"type"` // currently always "rep"
	Count       int     `json:"count"`
	MetDepth    bool    `json:"metDepth"`
	DepthPx     float64 `json:"depthPx"`
	TimestampMs int64   `json:"timestampMs"`
}

// Response is what a hook writes to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook represents a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}
