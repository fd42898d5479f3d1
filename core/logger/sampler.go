package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets through the first n of every d debug events.
type ratioSampler struct {
	// ratio packs n in the high and d in the low 32 bits; zero disables sampling.
	ratio atomic.Uint64
	seq   atomic.Uint64
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

// Set changes the ratio; non-positive values let every event through.
func (s *ratioSampler) Set(n, d int) {
	if n <= 0 || d <= 0 || n >= d {
		s.ratio.Store(0)
		s.seq.Store(0)
		return
	}
	s.ratio.Store(uint64(n)<<32 | uint64(uint32(d)))
	s.seq.Store(0)
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == 0 {
		return true
	}
	n, d := r>>32, r&0xffffffff
	return (s.seq.Add(1)-1)%d < n
}

// parseRatio accepts "n/d" or a bare "d" meaning 1/d.
func parseRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	num, den, found := strings.Cut(raw, "/")
	if !found {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0
		}
		return 1, v
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return n, d
}
