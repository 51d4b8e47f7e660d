package domain

import "time"

// HostReading is the host-wide reading of one sampling tick.
// Consumption is in micro-watts; Timestamp is in seconds or milliseconds.
type HostReading struct {
	Consumption *float64
	Timestamp   *float64
}

// Container identifies the container a consumer runs in.
type Container struct {
	ID   string
	Name string
}

// ConsumerRecord is a per-process or per-container reading nested in a HostInterval.
type ConsumerRecord struct {
	Exe         string
	PID         *int64
	Container   *Container
	Consumption *float64
	Timestamp   *float64
}

// ContainerID returns the consumer's container id, or "" if it has none.
func (c ConsumerRecord) ContainerID() string {
	if c.Container == nil {
		return ""
	}
	return c.Container.ID
}

// HostInterval is one sampling tick of the host monitoring agent.
type HostInterval struct {
	Host      *HostReading
	Consumers []ConsumerRecord
}

// PowerSample is a reading from the second monitoring pipeline.
// Power is already in watts.
type PowerSample struct {
	Timestamp time.Time
	Power     float64
	Target    string
}

// Point is a normalized sample: epoch milliseconds and watts.
type Point struct {
	TS    int64
	Value float64
}

// TimeWindow is one epoch-aligned bucket produced by window aggregation.
type TimeWindow struct {
	Start int64
	Value float64
	Time  time.Time
}
