package invoice

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seq  int64
		want string
	}{
		{seq: 1, want: "INV-001"},
		{seq: 42, want: "INV-042"},
		{seq: 999, want: "INV-999"},
		{seq: 1000, want: "INV-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Format(tt.seq); got != tt.want {
				t.Fatalf("Format(%d) = %q, want %q", tt.seq, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		want    int64
		wantErr bool
	}{
		{name: "padded", number: "INV-007", want: 7},
		{name: "wide", number: "INV-12345", want: 12345},
		{name: "no prefix", number: "007", wantErr: true},
		{name: "too short", number: "INV-7", wantErr: true},
		{name: "letters", number: "INV-00a", wantErr: true},
		{name: "zero", number: "INV-000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.number)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedNumber) {
					t.Fatalf("Parse(%q) error = %v, want ErrMalformedNumber", tt.number, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.number, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %d, want %d", tt.number, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, seq := range []int64{1, 10, 100, 1001} {
		got, err := Parse(Format(seq))
		if err != nil || got != seq {
			t.Fatalf("round trip of %d = %d, %v", seq, got, err)
		}
	}
}
