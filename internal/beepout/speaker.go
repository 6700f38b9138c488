package beepout

import (
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"stemmix/internal/mixer"
	"stemmix/pkg/audioengine"
)

// chain adalah control node per track: dibuat sekali per sesi dan dipakai
// ulang lintas restart; hanya streamer sumbernya yang diganti tiap Start.
type chain struct {
	pan  *effects.Pan
	vol  *effects.Volume
	gain float64
	panv float64
}

// Speaker mengimplementasikan mixer.Device di atas beep/speaker. Satu
// panggilan speaker.Play per Start menjamin semua track mulai dari satu
// instant penjadwalan.
type Speaker struct {
	rate   int
	chains map[string]*chain
	master *effects.Volume
	gain   float64
}

func New() *Speaker {
	return &Speaker{
		chains: make(map[string]*chain),
		gain:   1.0,
	}
}

func (s *Speaker) chainFor(name string) *chain {
	c, ok := s.chains[name]
	if !ok {
		c = &chain{
			pan:  &effects.Pan{},
			vol:  &effects.Volume{Base: 2},
			gain: 1.0,
		}
		c.vol.Streamer = c.pan
		applyGain(c.vol, c.gain)
		s.chains[name] = c
	}
	return c
}

func (s *Speaker) Start(rate int, sources []mixer.Source) error {
	if s.rate != rate {
		sr := beep.SampleRate(rate)
		if err := speaker.Init(sr, sr.N(time.Millisecond*100)); err != nil {
			return err
		}
		s.rate = rate
	}

	speaker.Clear()

	speaker.Lock()
	streams := make([]beep.Streamer, 0, len(sources))
	for _, src := range sources {
		c := s.chainFor(src.Name)
		c.pan.Streamer = &bufferStreamer{
			buf: src.Buffer,
			pos: int(src.Offset * float64(rate)),
		}
		c.pan.Pan = c.panv
		streams = append(streams, c.vol)
	}
	if s.master == nil {
		s.master = &effects.Volume{Base: 2}
		applyGain(s.master, s.gain)
	}
	s.master.Streamer = beep.Mix(streams...)
	speaker.Unlock()

	speaker.Play(s.master)
	return nil
}

func (s *Speaker) Clear() {
	speaker.Clear()
}

func (s *Speaker) SetGain(name string, gain float64) {
	speaker.Lock()
	c := s.chainFor(name)
	c.gain = gain
	applyGain(c.vol, gain)
	speaker.Unlock()
}

func (s *Speaker) SetPan(name string, pan float64) {
	speaker.Lock()
	c := s.chainFor(name)
	c.panv = pan
	c.pan.Pan = pan
	speaker.Unlock()
}

func (s *Speaker) SetMaster(gain float64) {
	speaker.Lock()
	s.gain = gain
	if s.master != nil {
		applyGain(s.master, gain)
	}
	speaker.Unlock()
}

// applyGain memetakan gain linier [0,1] ke skala eksponensial beep.
func applyGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(gain)
}

// bufferStreamer membaca Buffer immutable dari offset frame tertentu.
// Single-use: setelah habis tidak pernah di-rewind.
type bufferStreamer struct {
	buf *audioengine.Buffer
	pos int
}

func (b *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= b.buf.Frames() {
		return 0, false
	}
	n := 0
	for i := range samples {
		if b.pos >= b.buf.Frames() {
			break
		}
		l, r := b.buf.Sample(b.pos)
		samples[i] = [2]float64{l, r}
		b.pos++
		n++
	}
	return n, true
}

func (b *bufferStreamer) Err() error { return nil }
