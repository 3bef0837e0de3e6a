package model

import (
	"encoding/json"
	"time"
)

// QuestionSet is the persisted output of one successful question
// generation job for a (video, language) pair.  The payload is the raw
// JSON array of questions exactly as parsed from the generation call;
// this service treats it as opaque and never inspects individual
// questions.
//
// Fields:
//  ID        – primary key identifier.
//  VideoID   – video the questions were generated for.
//  Language  – language of the generated questions.
//  Payload   – JSON array of question objects.
//  CreatedAt – when generation completed.
type QuestionSet struct {
	ID        uint64          // question_sets.id
	VideoID   string          // question_sets.video_id
	Language  string          // question_sets.language
	Payload   json.RawMessage // question_sets.payload
	CreatedAt time.Time       // question_sets.created_at
}
