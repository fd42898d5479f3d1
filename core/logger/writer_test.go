package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFansOutInOrder(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{a, nil, b}, 8)
	for _, line := range []string{"one\n", "two\n", "three\n"} {
		if err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, buf := range []*bytes.Buffer{a, b} {
		if got := buf.String(); got != "one\ntwo\nthree\n" {
			t.Fatalf("sink got %q", got)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	_ = w.Write([]byte(strings.Repeat("x", 32)))
	if err := w.Close(); err == nil {
		t.Fatal("expected write error on close")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 4)
	passed := 0
	for i := 0; i < 12; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("passed = %d, want 3", passed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		" 50 ": {1, 50},
		"0":    {0, 0},
		"x/2":  {0, 0},
		"":     {0, 0},
	}
	for in, want := range cases {
		n, d := parseRatio(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("%q -> %d/%d, want %d/%d", in, n, d, want[0], want[1])
		}
	}
}
