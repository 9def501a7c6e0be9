package notification

import (
	"strings"
	"time"
)

var (
	scanKeywords          = []string{"scan", "task", "crawl"}
	vulnerabilityKeywords = []string{"vulnerab", "cve", "exploit", "finding"}
)

// Normalize maps a raw server notification into the canonical entity.
// The explicit category field is authoritative when it names a known
// category; keyword inference on the message is a best-effort fallback.
// A missing or unparseable timestamp falls back to now, a missing read
// flag defaults to unread. Normalize never rejects a notification.
func Normalize(raw *Raw, now time.Time) *Notification {
	category, err := toCategory(raw.Category)
	if err != nil {
		category = inferCategory(raw.Message)
	}
	// unknown levels collapse to no severity
	severity, _ := toSeverity(raw.Level)
	createdAt := now
	if ts := raw.createdAt(); ts != "" {
		if t, errParse := time.Parse(time.RFC3339, ts); errParse == nil {
			createdAt = t
		}
	}
	unread := true
	if isRead := raw.isRead(); isRead != nil {
		unread = !*isRead
	}
	var id int64
	if raw.ID != nil {
		id = *raw.ID
	}
	return &Notification{
		ID:          id,
		Category:    category,
		Title:       raw.Title,
		Description: raw.Message,
		Severity:    severity,
		CreatedAt:   createdAt,
		Unread:      unread,
	}
}

func inferCategory(message string) Category {
	msg := strings.ToLower(message)
	for _, kw := range scanKeywords {
		if strings.Contains(msg, kw) {
			return Scan
		}
	}
	for _, kw := range vulnerabilityKeywords {
		if strings.Contains(msg, kw) {
			return Vulnerability
		}
	}
	return System
}
