package queue

// GenerationCompletedEvent is published after a generation job has
// persisted its result. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type GenerationCompletedEvent struct {
	EventID     string `json:"event_id"`
	VideoID     string `json:"video_id"`
	Language    string `json:"language"`
	Kind        string `json:"kind"`
	ItemCount   int    `json:"item_count"`
	DurationMS  int64  `json:"duration_ms"`
	CompletedAt string `json:"completed_at"`
}
