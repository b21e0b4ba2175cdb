// Package annotations provides a clean, low-overhead annotation system for
// tracing conjunctive query evaluation.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Query lifecycle
	QueryInvoked  = "query/invoked"
	QueryComplete = "query/completed"

	// Join tree construction
	TreeBuilt  = "tree/built"
	TreeCyclic = "tree/cyclic"

	// Yannakakis passes
	PassBegin    = "pass/begin"
	PassComplete = "pass/complete"

	// Leaf evaluation
	LeafScan = "leaf/scan"

	// Relational operators
	JoinHash      = "join/hash"
	JoinSemi      = "join/semi"
	JoinIntersect = "join/intersect"
	JoinProduct   = "join/product"

	// Final projection onto the head
	ResultProjection = "result/projection"

	// Batch runs
	BatchQuery = "batch/query"
)

// Event represents a single annotation event during query execution.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Additional event-specific data with grouped metrics
	Caller  string                 // Optional: file:line where event occurred
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events during query execution.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex // Protects events for concurrent access
}

// NewCollector creates a new annotation collector.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 64), // Pre-size for typical query
	}
}

// Handler returns the underlying event handler.
func (c *Collector) Handler() Handler {
	return c.handler
}

// Add records a new event.
// Thread-safe for concurrent access.
func (c *Collector) Add(event Event) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	// Call handler outside the lock to avoid deadlocks
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event with timing information.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.enabled {
		return
	}

	end := time.Now()
	event := Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	}

	c.Add(event)
}

// Events returns all collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Return a copy to avoid race conditions
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Reset clears the collector for reuse.
// Thread-safe for concurrent access.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	// Don't clear handler or enabled status
}
