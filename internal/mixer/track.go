package mixer

import (
	"stemmix/pkg/audioengine"
)

// Track adalah satu stem di dalam mix set. Buffer tidak pernah dimutasi:
// Rendered diganti utuh oleh render pipeline, Original tetap selamanya.
type Track struct {
	Name     string
	Original *audioengine.Buffer
	Rendered *audioengine.Buffer

	Gain float64 // 0..1
	Pan  float64 // -1..1
	Mute bool
	Solo bool
}

// active mengembalikan buffer yang dipakai playback: hasil render tempo
// kalau ada, kalau tidak buffer asli.
func (t *Track) active() *audioengine.Buffer {
	if t.Rendered != nil {
		return t.Rendered
	}
	return t.Original
}
