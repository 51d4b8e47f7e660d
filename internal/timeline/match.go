package timeline

import (
	"fmt"
	"strings"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

// TargetKind selects which part of a HostInterval a target reads.
type TargetKind int

const (
	// TargetHost reads the interval's own host reading.
	TargetHost TargetKind = iota
	// TargetContainer sums consumers running in a container.
	TargetContainer
	// TargetProcess sums consumers whose executable path contains a substring.
	TargetProcess
)

// Target is a logical consumer of energy.
type Target struct {
	Kind        TargetKind
	ContainerID string
	Mode        domain.MatchMode
	Process     string
}

func HostTarget() Target {
	return Target{Kind: TargetHost}
}

func ContainerTarget(id string, mode domain.MatchMode) Target {
	return Target{Kind: TargetContainer, ContainerID: id, Mode: mode}
}

func ProcessTarget(substr string) Target {
	return Target{Kind: TargetProcess, Process: substr}
}

// Matches reports whether the consumer's consumption belongs to the target.
// Host targets never match consumers.
func (t Target) Matches(c domain.ConsumerRecord) bool {
	switch t.Kind {
	case TargetContainer:
		if t.ContainerID == "" {
			return false
		}
		id := c.ContainerID()
		if id == "" {
			return false
		}
		if t.Mode == domain.MatchContains {
			return strings.Contains(id, t.ContainerID)
		}
		return strings.HasPrefix(id, t.ContainerID)
	case TargetProcess:
		if t.Process == "" || c.Exe == "" {
			return false
		}
		return strings.Contains(strings.ToLower(c.Exe), strings.ToLower(t.Process))
	default:
		return false
	}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetContainer:
		return fmt.Sprintf("container:%s(%s)", shortID(t.ContainerID), t.Mode)
	case TargetProcess:
		return "process:" + t.Process
	default:
		return "host"
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
