// Package velocity collects note velocities from sequences and rewrites
// them with values drawn from such a collection.
package velocity

import (
	"encoding/json"
	"io/ioutil"
	"math/rand"
	"os"
	"sort"

	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/stream"
)

// Map lists, per note key, the velocities seen for it.
type Map map[uint8][]int

// Import reads a map saved as JSON.
func Import(name string) (Map, error) {
	jsonFile, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()

	var bytes []byte
	bytes, err = ioutil.ReadAll(jsonFile)
	if err != nil {
		return nil, err
	}

	var data Map
	err = json.Unmarshal(bytes, &data)
	return data, err
}

// Collector builds a Map from the note events of many tracks.
type Collector struct {
	seen map[uint8]map[uint8]bool
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[uint8]map[uint8]bool)}
}

// Observe records every note velocity of t.
func (c *Collector) Observe(t *stream.Track) error {
	events, err := t.Events()
	if err != nil {
		return err
	}
	for _, e := range events {
		if e.Kind() != event.KindNote || e.Velocity() == 0 {
			continue
		}
		if _, ok := c.seen[e.Key]; !ok {
			c.seen[e.Key] = make(map[uint8]bool)
		}
		c.seen[e.Key][e.Velocity()] = true
	}
	return nil
}

// Map returns the distinct velocities per key in ascending order.
func (c *Collector) Map() Map {
	m := make(Map, len(c.seen))
	for key, vs := range c.seen {
		for v := range vs {
			m[key] = append(m[key], int(v))
		}
		sort.Ints(m[key])
	}
	return m
}

// Humanizer replaces note velocities with random picks from a Map.
type Humanizer struct {
	candidates map[uint8][]uint8
	rnd        *rand.Rand
}

// NewHumanizer keeps the velocities of m strictly between min and max.
func NewHumanizer(m Map, min, max int, seed int64) *Humanizer {
	h := &Humanizer{candidates: make(map[uint8][]uint8), rnd: rand.New(rand.NewSource(seed))}
	for key, vs := range m {
		for _, v := range vs {
			if v > min && v < max && v < 0x80 {
				h.candidates[key] = append(h.candidates[key], uint8(v))
			}
		}
	}
	return h
}

// Apply rewrites the velocity of every note whose key has candidates and
// returns how many notes it touched.
func (h *Humanizer) Apply(t *stream.Track) (int, error) {
	n := 0
	for i := 0; i < t.Len(); i++ {
		e, err := t.Read(i)
		if err != nil {
			return n, err
		}
		if e.Kind() != event.KindNote {
			continue
		}
		vs := h.candidates[e.Key]
		if len(vs) == 0 {
			continue
		}

		e.Op = vs[h.rnd.Intn(len(vs))]
		if err := t.Replace(i, e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
