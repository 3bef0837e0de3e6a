package model

import "time"

// WatchEvent is one telemetry sample from a playback session: what the
// player was doing at a given position.  Events arrive in batches and
// every event in a batch carries the same main/sub ticket pair, so the
// relative order of batches is recoverable even when clients retry or
// overlap.
//
// Fields:
//  ID         – primary key identifier.
//  OwnerID    – viewer the event belongs to.
//  VideoID    – video being watched.
//  SessionID  – client session that produced the event.
//  MainTicket – main ticket stamped on the whole batch.
//  SubTicket  – sub ticket stamped on the whole batch.
//  Kind       – event kind (play, pause, seek, progress, ...).
//  Position   – playback position in seconds when the event fired.
//  OccurredAt – client-side event timestamp.
//  CreatedAt  – when the row was inserted.
type WatchEvent struct {
	ID         uint64    // watch_events.id
	OwnerID    uint64    // watch_events.owner_id
	VideoID    string    // watch_events.video_id
	SessionID  string    // watch_events.session_id
	MainTicket uint64    // watch_events.main_ticket
	SubTicket  uint64    // watch_events.sub_ticket
	Kind       string    // watch_events.kind
	Position   float64   // watch_events.position
	OccurredAt time.Time // watch_events.occurred_at
	CreatedAt  time.Time // watch_events.created_at
}
