package model

// SessionTicket records the ticket pair currently in effect for one
// viewing session on one video.  At most one row exists per
// (video, session) pair; the row is overwritten whenever the session is
// assigned a new main ticket.  Telemetry batches read this row once and
// stamp every event with the same pair.
//
// Fields:
//  VideoID    – video the session is watching.
//  SessionID  – opaque client session identifier.
//  MainTicket – main ticket currently assigned to the session.
//  SubTicket  – sub ticket currently assigned within that main ticket.
type SessionTicket struct {
	VideoID    string // session_tickets.video_id
	SessionID  string // session_tickets.session_id
	MainTicket uint64 // session_tickets.main_ticket
	SubTicket  uint64 // session_tickets.sub_ticket
}
