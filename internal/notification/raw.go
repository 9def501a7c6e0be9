package notification

// Raw is the wire shape a notification arrives in, shared by the stream
// (`notification` frames) and the historical endpoint (`results` entries).
// The server is inconsistent about field casing, so both spellings of the
// timestamp and read flag are accepted.
type Raw struct {
	ID             *int64 `json:"id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Level          string `json:"level,omitempty"`
	Category       string `json:"category,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	CreatedAtSnake string `json:"created_at,omitempty"`
	IsRead         *bool  `json:"isRead,omitempty"`
	IsReadSnake    *bool  `json:"is_read,omitempty"`
}

func (r *Raw) createdAt() string {
	if r.CreatedAt != "" {
		return r.CreatedAt
	}
	return r.CreatedAtSnake
}

func (r *Raw) isRead() *bool {
	if r.IsRead != nil {
		return r.IsRead
	}
	return r.IsReadSnake
}
