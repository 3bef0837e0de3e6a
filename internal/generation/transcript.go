package generation

import "strings"

// Transcript is the time-aligned text of one video, fetched from the
// transcript collaborator. Segments are expected in ascending start
// order.
type Transcript struct {
	VideoID  string
	Segments []Segment
}

// Segment is one contiguous piece of transcript text with its playback
// interval in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// FullText joins all segment texts into one document, used for summary
// jobs which consume the whole transcript at once.
func (t *Transcript) FullText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// chunkByWindow splits the transcript into time-bounded chunks of at
// most window seconds each, returning the joined text per chunk.
// Question jobs process chunks in parallel so a long lecture does not
// serialize into one enormous generation call. A segment belongs to the
// chunk its start time falls into; empty chunks are dropped.
func chunkByWindow(t *Transcript, window float64) []string {
	if window <= 0 || len(t.Segments) == 0 {
		if txt := t.FullText(); txt != "" {
			return []string{txt}
		}
		return nil
	}
	var chunks []string
	var parts []string
	boundary := t.Segments[0].Start + window
	flush := func() {
		if len(parts) > 0 {
			chunks = append(chunks, strings.Join(parts, " "))
			parts = parts[:0]
		}
	}
	for _, seg := range t.Segments {
		for seg.Start >= boundary {
			flush()
			boundary += window
		}
		if s := strings.TrimSpace(seg.Text); s != "" {
			parts = append(parts, s)
		}
	}
	flush()
	return chunks
}
