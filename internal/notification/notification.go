package notification

import (
	"fmt"
	"time"
)

type Category int8

const (
	Scan Category = iota
	Vulnerability
	Asset
	System
)

var ErrNoSuchCategory = fmt.Errorf("no such category exists")

func toCategory(category string) (Category, error) {
	switch category {
	case "scan":
		return Scan, nil
	case "vulnerability":
		return Vulnerability, nil
	case "asset":
		return Asset, nil
	case "system":
		return System, nil
	default:
		return -1, ErrNoSuchCategory
	}
}

func (c Category) String() string {
	switch c {
	case Scan:
		return "scan"
	case Vulnerability:
		return "vulnerability"
	case Asset:
		return "asset"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

type Severity int8

const (
	NoSeverity Severity = iota
	Low
	Medium
	High
	Critical
)

var ErrNoSuchSeverity = fmt.Errorf("no such severity exists")

func toSeverity(level string) (Severity, error) {
	switch level {
	case "":
		return NoSeverity, nil
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	case "critical":
		return Critical, nil
	default:
		return NoSeverity, ErrNoSuchSeverity
	}
}

func (s Severity) String() string {
	switch s {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return ""
	}
}

// Notification is the canonical entity shared by the live stream and the
// historical snapshot. Unread is the only mutable field.
type Notification struct {
	ID          int64
	Category    Category
	Title       string
	Description string
	Severity    Severity
	CreatedAt   time.Time
	Unread      bool
}
