package model

import (
	"encoding/json"
	"time"
)

// Summary is the persisted output of one successful summary generation
// job for a (video, language) pair.  Like QuestionSet, the payload is
// stored as the raw JSON document returned by the generation call.
//
// Fields:
//  ID        – primary key identifier.
//  VideoID   – video the summary was generated for.
//  Language  – language of the summary.
//  Payload   – JSON document with the summary sections.
//  CreatedAt – when generation completed.
type Summary struct {
	ID        uint64          // summaries.id
	VideoID   string          // summaries.video_id
	Language  string          // summaries.language
	Payload   json.RawMessage // summaries.payload
	CreatedAt time.Time       // summaries.created_at
}
