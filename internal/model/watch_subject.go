package model

import "time"

// WatchSubject tracks a viewer's ongoing relationship with one video.
// One row exists per (owner, video) pair; it is created lazily when the
// first telemetry event for the pair arrives and is never deleted by
// this service.  The two counters are the source of truth for ticket
// numbering: both are "next unused" values and only ever move forward.
//
// Fields:
//  ID               – primary key identifier.
//  OwnerID          – viewer who owns this subject.
//  VideoID          – video being watched.
//  NextMainTicket   – next unissued main ticket number (starts at 1).
//  NextSubTicket    – next unissued sub ticket within the active main ticket.
//  PlaybackPosition – last reported playback position in seconds.
//  UpdatedAt        – timestamp of last mutation.
type WatchSubject struct {
	ID               uint64    // watch_subjects.id
	OwnerID          uint64    // watch_subjects.owner_id
	VideoID          string    // watch_subjects.video_id
	NextMainTicket   uint64    // watch_subjects.next_main_ticket
	NextSubTicket    uint64    // watch_subjects.next_sub_ticket
	PlaybackPosition float64   // watch_subjects.playback_position
	UpdatedAt        time.Time // watch_subjects.updated_at
}
