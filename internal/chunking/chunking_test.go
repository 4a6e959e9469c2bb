package chunking

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		want    []string
	}{
		{
			name:    "short text returns single trimmed segment",
			text:    "  MXLEN may be 32 or 64.  ",
			maxSize: 100,
			want:    []string{"MXLEN may be 32 or 64."},
		},
		{
			name:    "empty text returns single empty segment",
			text:    "",
			maxSize: 100,
			want:    []string{""},
		},
		{
			name:    "whitespace-only text returns single empty segment",
			text:    "   \n\n  ",
			maxSize: 100,
			want:    []string{""},
		},
		{
			name:    "text exactly at limit stays whole",
			text:    strings.Repeat("a", 50),
			maxSize: 50,
			want:    []string{strings.Repeat("a", 50)},
		},
		{
			name:    "splits on paragraph boundaries",
			text:    "aaaa\n\nbbbb\n\ncccc",
			maxSize: 10,
			want:    []string{"aaaa", "bbbb", "cccc"},
		},
		{
			name:    "packs paragraphs greedily with separator accounting",
			text:    "aaaa\n\nbbbb\n\ncccc",
			maxSize: 12,
			want:    []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:    "oversized paragraph becomes its own segment",
			text:    strings.Repeat("x", 25) + "\n\nbb",
			maxSize: 10,
			want:    []string{strings.Repeat("x", 25), "bb"},
		},
		{
			name:    "trailing blank paragraphs are dropped",
			text:    "aaaa\n\nbbbb\n\n\n\n",
			maxSize: 10,
			want:    []string{"aaaa", "bbbb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text, tt.maxSize)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q, %d) = %q, want %q", tt.text, tt.maxSize, got, tt.want)
			}
		})
	}
}

func TestSplitDefaultsMaxSize(t *testing.T) {
	text := strings.Repeat("p", 100)
	got := Split(text, 0)
	if len(got) != 1 || got[0] != text {
		t.Errorf("Split with zero maxSize should use the default budget, got %d segments", len(got))
	}
}

func TestSplitPreservesParagraphOrder(t *testing.T) {
	paragraphs := []string{
		"The cache block size is implementation-defined.",
		"VLEN must be a power of two no greater than 65536.",
		"Implementations may omit the misa register.",
		"The number of PMP entries may be 0, 16, or 64.",
		"Hart IDs need not be contiguous.",
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := Split(text, 60)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(chunks))
	}

	var rejoined []string
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			t.Error("Split produced an empty segment")
		}
		rejoined = append(rejoined, strings.Split(chunk, "\n\n")...)
	}
	if !reflect.DeepEqual(rejoined, paragraphs) {
		t.Errorf("paragraphs not preserved in order:\ngot  %q\nwant %q", rejoined, paragraphs)
	}
}
