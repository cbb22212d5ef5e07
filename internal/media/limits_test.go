package media

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCopyWithLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		payload   []byte
		maxBytes  int64
		wantErr   bool
		errTooBig bool
	}{
		{
			name:     "within limit",
			payload:  []byte("hello"),
			maxBytes: 8,
		},
		{
			name:      "over limit",
			payload:   []byte("0123456789"),
			maxBytes:  5,
			wantErr:   true,
			errTooBig: true,
		},
		{
			name:     "exact limit",
			payload:  []byte("12345"),
			maxBytes: 5,
		},
		{
			name:     "zero limit",
			payload:  []byte("1"),
			maxBytes: 0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			n, err := CopyWithLimit(&out, bytes.NewReader(tt.payload), tt.maxBytes)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if tt.errTooBig && !errors.Is(err, ErrSizeExceeded) {
					t.Fatalf("expected ErrSizeExceeded, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != int64(len(tt.payload)) || out.String() != string(tt.payload) {
				t.Fatalf("unexpected payload: %q (%d)", out.String(), n)
			}
		})
	}
}

func TestCopyWithLimitStopsEarly(t *testing.T) {
	t.Parallel()

	src := strings.NewReader(strings.Repeat("x", 1000))
	var out bytes.Buffer
	n, err := CopyWithLimit(&out, src, 10)
	if !errors.Is(err, ErrSizeExceeded) {
		t.Fatalf("expected ErrSizeExceeded, got %v", err)
	}
	if n != 11 {
		t.Fatalf("expected copy to stop at limit+1, copied %d", n)
	}
	if src.Len() != 1000-11 {
		t.Fatalf("reader consumed past the limit: %d left", src.Len())
	}
}

func TestLimits(t *testing.T) {
	t.Parallel()

	l := NewLimits(18)
	if l.MaxInputBytes != 18*1024*1024 {
		t.Fatalf("unexpected max bytes: %d", l.MaxInputBytes)
	}
	if l.Exceeds(l.MaxInputBytes) {
		t.Fatal("size equal to the limit must be accepted")
	}
	if !l.Exceeds(l.MaxInputBytes + 1) {
		t.Fatal("one byte over the limit must be rejected")
	}
	if l.Exceeds(0) {
		t.Fatal("unknown size must not exceed")
	}
	if got := l.MaxInputMB(); got != "18" {
		t.Fatalf("unexpected MB rendering: %s", got)
	}
	if got := NewLimits(2.5).MaxInputMB(); got != "2.5" {
		t.Fatalf("unexpected MB rendering: %s", got)
	}
	if got := NewLimits(0).MaxInputBytes; got != DefaultMaxInputMB*1024*1024 {
		t.Fatalf("expected default limit, got %d", got)
	}
}
