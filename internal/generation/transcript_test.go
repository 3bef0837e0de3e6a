package generation

import (
	"reflect"
	"testing"
)

func TestFullText(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{Start: 0, End: 5, Text: " hello "},
		{Start: 5, End: 10, Text: ""},
		{Start: 10, End: 15, Text: "world"},
	}}
	if got := tr.FullText(); got != "hello world" {
		t.Fatalf("FullText = %q, want %q", got, "hello world")
	}
}

func TestChunkByWindow(t *testing.T) {
	cases := []struct {
		name   string
		tr     *Transcript
		window float64
		want   []string
	}{
		{
			name:   "empty transcript",
			tr:     &Transcript{},
			window: 60,
			want:   nil,
		},
		{
			name: "single window",
			tr: &Transcript{Segments: []Segment{
				{Start: 0, Text: "a"},
				{Start: 30, Text: "b"},
			}},
			window: 60,
			want:   []string{"a b"},
		},
		{
			name: "split on boundary",
			tr: &Transcript{Segments: []Segment{
				{Start: 0, Text: "a"},
				{Start: 59, Text: "b"},
				{Start: 60, Text: "c"},
				{Start: 119, Text: "d"},
				{Start: 120, Text: "e"},
			}},
			window: 60,
			want:   []string{"a b", "c d", "e"},
		},
		{
			name: "gap larger than a window drops the empty chunk",
			tr: &Transcript{Segments: []Segment{
				{Start: 0, Text: "a"},
				{Start: 300, Text: "b"},
			}},
			window: 60,
			want:   []string{"a", "b"},
		},
		{
			name: "zero window falls back to one chunk",
			tr: &Transcript{Segments: []Segment{
				{Start: 0, Text: "a"},
				{Start: 500, Text: "b"},
			}},
			window: 0,
			want:   []string{"a b"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := chunkByWindow(tc.tr, tc.window)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("chunkByWindow = %#v, want %#v", got, tc.want)
			}
		})
	}
}
