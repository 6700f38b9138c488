package mixer

import (
	"stemmix/pkg/audioengine"
)

// Source binds one track to the buffer and offset it should play from.
// Sources are single-use: every Start gets a fresh set, a started source
// is never restarted.
type Source struct {
	Name   string
	Buffer *audioengine.Buffer
	Offset float64 // detik ke dalam buffer, sudah di-clamp
}

// Device is the audio output boundary. Implementations must start every
// source from the same scheduling instant (per-track skew breaks ensemble
// phase lock), keep one gain/pan control chain per track name for the whole
// session, and apply gain/pan/master changes to live playback.
type Device interface {
	// Start schedules all sources at once. Any previously started sources
	// are discarded first.
	Start(rate int, sources []Source) error

	// Clear stops and discards all active sources. Control nodes survive.
	Clear()

	SetGain(name string, gain float64)
	SetPan(name string, pan float64)
	SetMaster(gain float64)
}
