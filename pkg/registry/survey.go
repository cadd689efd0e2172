package registry

import (
	"bytes"

	"github.com/Garik-/dse/pkg/ledger"
)

// Survey tallies the raw values of opaque fields over a corpus of decoded
// records. It is not safe for concurrent use; feed it from one goroutine.
type Survey struct {
	counts map[Key]map[string]int
	totals map[Key]int
}

// NewSurvey returns an empty survey.
func NewSurvey() *Survey {
	return &Survey{
		counts: make(map[Key]map[string]int),
		totals: make(map[Key]int),
	}
}

// Observe counts every opaque field of rec.
func (s *Survey) Observe(rec *ledger.Record) {
	name := rec.Schema.Name()
	for _, f := range rec.Fields {
		if f.Class != ledger.ClassOpaque {
			continue
		}
		k := Key{Record: name, Field: f.ID}
		m, ok := s.counts[k]
		if !ok {
			m = make(map[string]int)
			s.counts[k] = m
		}
		m[string(f.Raw)]++
		s.totals[k]++
	}
}

// Observations returns how many values were seen for record.field.
func (s *Survey) Observations(record, field string) int {
	return s.totals[Key{Record: record, Field: field}]
}

// Build picks the most frequent value of every surveyed field. Ties go to the
// lowest raw value in byte order. A field is strippable when its default
// covers at least minShare of the observations.
func (s *Survey) Build(version string, minShare float64) *Registry {
	r := &Registry{version: version, entries: make(map[Key]Entry, len(s.counts))}
	for k, m := range s.counts {
		var best []byte
		bestN := 0
		for v, n := range m {
			raw := []byte(v)
			if n > bestN || (n == bestN && bytes.Compare(raw, best) < 0) {
				best, bestN = raw, n
			}
		}
		share := float64(bestN) / float64(s.totals[k])
		r.entries[k] = Entry{Value: best, Strippable: share >= minShare}
	}
	return r
}
