package mixer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"stemmix/pkg/audioengine"
)

// StretchFunc is the pitch-preserving time-stretch primitive.
type StretchFunc func(ctx context.Context, buf *audioengine.Buffer, ratio float64) (*audioengine.Buffer, error)

// Stem memasangkan nama track dengan audio terenkode (WAV / Ogg Opus).
type Stem struct {
	Name string
	Data []byte
}

// DecodedStem memasangkan nama track dengan buffer PCM yang sudah jadi.
type DecodedStem struct {
	Name   string
	Buffer *audioengine.Buffer
}

// Mixer adalah otoritas tunggal untuk transport, mix graph, render tempo,
// dan loop region. Satu mutex menjaga seluruh state; semua operasi publik
// aman dipanggil dari goroutine mana pun.
type Mixer struct {
	mu  sync.Mutex
	dev Device
	now func() time.Time

	tracks []*Track
	byName map[string]*Track
	rate   int
	dur    float64 // ensemble duration buffer set aktif

	// Transport clock: posisi diturunkan aritmetik dari monotonic clock,
	// tidak pernah disampling dari device.
	state  State
	offset float64
	anchor time.Time
	frozen bool // playing tapi sumber dihentikan menunggu render tempo

	master float64
	loop   LoopRegion

	tempo        float64 // ratio yang sedang aktif
	epoch        uint64  // RenderEpoch: render paling baru yang boleh apply
	rendering    bool
	renderCancel context.CancelFunc
	lastErr      string

	pollGen  uint64
	pollQuit chan struct{}

	stretch     StretchFunc
	renderDelay time.Duration
	pollEvery   time.Duration

	subs   []chan Status
	closed bool
}

type Option func(*Mixer)

// WithClock mengganti sumber waktu monotonic (untuk simulasi di test).
func WithClock(now func() time.Time) Option {
	return func(m *Mixer) { m.now = now }
}

// WithStretch mengganti primitive time-stretch.
func WithStretch(fn StretchFunc) Option {
	return func(m *Mixer) { m.stretch = fn }
}

// WithRenderDelay mengatur jendela debounce permintaan tempo.
func WithRenderDelay(d time.Duration) Option {
	return func(m *Mixer) { m.renderDelay = d }
}

// WithPollInterval mengatur periode position/loop poller.
func WithPollInterval(d time.Duration) Option {
	return func(m *Mixer) { m.pollEvery = d }
}

func New(dev Device, opts ...Option) *Mixer {
	m := &Mixer{
		dev:         dev,
		now:         time.Now,
		byName:      make(map[string]*Track),
		master:      1.0,
		tempo:       1.0,
		stretch:     audioengine.Stretch,
		renderDelay: 150 * time.Millisecond,
		pollEvery:   15 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ======================================================
// Load
// ======================================================

// Load mendekode semua stem lalu menggantikan mix set. Gagal decode satu
// stem menggagalkan seluruh load dan meninggalkan state lama utuh.
func (m *Mixer) Load(stems []Stem, tempo float64) error {
	decoded := make([]DecodedStem, 0, len(stems))
	for _, s := range stems {
		buf, err := audioengine.Decode(s.Data)
		if err != nil {
			return &DecodeError{Track: s.Name, Err: err}
		}
		decoded = append(decoded, DecodedStem{Name: s.Name, Buffer: buf})
	}
	return m.LoadDecoded(decoded, tempo)
}

// LoadDecoded menggantikan mix set dengan buffer yang sudah didekode
// (misal hasil unpack bundle). Semua track wajib satu sample rate.
func (m *Mixer) LoadDecoded(stems []DecodedStem, tempo float64) error {
	if len(stems) == 0 {
		return ErrNoTracks
	}

	rate := stems[0].Buffer.Rate
	seen := make(map[string]bool, len(stems))
	for _, s := range stems {
		if s.Buffer == nil || s.Buffer.Frames() == 0 {
			return &DecodeError{Track: s.Name, Err: fmt.Errorf("buffer kosong")}
		}
		if s.Buffer.Rate != rate {
			return &DecodeError{Track: s.Name, Err: fmt.Errorf("sample rate %d != %d", s.Buffer.Rate, rate)}
		}
		if seen[s.Name] {
			return &DecodeError{Track: s.Name, Err: fmt.Errorf("nama track duplikat")}
		}
		seen[s.Name] = true
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}

	// Ganti track set: render yang masih pending jadi usang.
	m.stopPollerLocked()
	m.dev.Clear()
	m.cancelRenderLocked()

	m.tracks = m.tracks[:0]
	m.byName = make(map[string]*Track, len(stems))
	for _, s := range stems {
		t := &Track{Name: s.Name, Original: s.Buffer, Gain: 1.0}
		m.tracks = append(m.tracks, t)
		m.byName[s.Name] = t
	}
	m.rate = rate
	m.dur = m.ensembleLocked()
	m.state = Stopped
	m.offset = 0
	m.frozen = false
	m.tempo = 1.0
	m.loop = LoopRegion{}
	m.lastErr = ""

	// Wire control nodes dengan nilai awal.
	m.pushMixLocked()
	for _, t := range m.tracks {
		m.dev.SetPan(t.Name, t.Pan)
	}
	m.dev.SetMaster(m.master)
	m.mu.Unlock()
	m.notify()

	if tempo > 0 && tempo < 1.0 {
		m.SetTempo(tempo)
	}
	return nil
}

// ensembleLocked: durasi ensemble = durasi track terpanjang di set aktif.
func (m *Mixer) ensembleLocked() float64 {
	var max float64
	for _, t := range m.tracks {
		if d := t.active().Duration(); d > max {
			max = d
		}
	}
	return max
}

// ======================================================
// Transport
// ======================================================

func (m *Mixer) positionLocked() float64 {
	if m.state == Playing && !m.frozen {
		return m.offset + m.now().Sub(m.anchor).Seconds()
	}
	return m.offset
}

// Position mengembalikan posisi transport saat ini dalam detik.
func (m *Mixer) Position() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

// startSourcesLocked membuat source baru untuk semua track dan memulai
// semuanya dari satu instant penjadwalan; anchor di-reset ke instant yang
// sama.
func (m *Mixer) startSourcesLocked(from float64) error {
	sources := make([]Source, 0, len(m.tracks))
	for _, t := range m.tracks {
		buf := t.active()
		sources = append(sources, Source{
			Name:   t.Name,
			Buffer: buf,
			Offset: clampF(from, 0, buf.Duration()),
		})
	}
	if err := m.dev.Start(m.rate, sources); err != nil {
		return err
	}
	m.anchor = m.now()
	m.offset = from
	m.frozen = false
	return nil
}

// Play memulai atau melanjutkan playback dari offset sekarang.
func (m *Mixer) Play() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if len(m.tracks) == 0 {
		m.mu.Unlock()
		return ErrNoTracks
	}
	if m.state == Playing {
		m.mu.Unlock()
		return nil
	}
	if err := m.startSourcesLocked(m.offset); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = Playing
	m.startPollerLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

// Pause membekukan offset pada posisi sekarang; source dibuang.
func (m *Mixer) Pause() {
	m.mu.Lock()
	if m.state != Playing {
		m.mu.Unlock()
		return
	}
	m.offset = m.positionLocked()
	m.state = Paused
	m.frozen = false
	m.stopPollerLocked()
	m.dev.Clear()
	m.mu.Unlock()
	m.notify()
}

// Stop selalu rewind ke 0 (beda dengan Pause) dan membuat render yang
// masih pending jadi usang.
func (m *Mixer) Stop() {
	m.mu.Lock()
	m.stopTransportLocked()
	m.cancelRenderLocked()
	m.mu.Unlock()
	m.notify()
}

func (m *Mixer) stopTransportLocked() {
	m.offset = 0
	m.state = Stopped
	m.frozen = false
	m.stopPollerLocked()
	m.dev.Clear()
}

func (m *Mixer) cancelRenderLocked() {
	m.epoch++
	if m.renderCancel != nil {
		m.renderCancel()
		m.renderCancel = nil
	}
	m.rendering = false
}

// Seek memindahkan posisi, di-clamp ke [0, durasi]. Saat Playing source
// di-restart pada offset baru; saat Paused hanya offset yang berubah.
func (m *Mixer) Seek(sec float64) {
	m.mu.Lock()
	pos := clampF(sec, 0, m.dur)
	m.offset = pos
	if m.state == Playing && !m.frozen {
		m.dev.Clear()
		if err := m.startSourcesLocked(pos); err != nil {
			m.lastErr = err.Error()
			m.stopTransportLocked()
		}
	}
	m.mu.Unlock()
	m.notify()
}

// Close mematikan poller, membatalkan render pending, dan membuang source.
func (m *Mixer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopPollerLocked()
	m.cancelRenderLocked()
	m.dev.Clear()
	m.subs = nil
	m.mu.Unlock()
}

func clampF(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ======================================================
// Mix graph
// ======================================================

// pushMixLocked menghitung ulang audible gain SEMUA track: solo adalah
// prioritas se-ensemble, bukan flag per track.
func (m *Mixer) pushMixLocked() {
	anySolo := false
	for _, t := range m.tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}
	for _, t := range m.tracks {
		audible := !t.Mute && (!anySolo || t.Solo)
		g := 0.0
		if audible {
			g = t.Gain
		}
		m.dev.SetGain(t.Name, g)
	}
}

func (m *Mixer) SetTrackGain(name string, gain float64) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Gain = clampF(gain, 0, 1)
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) SetTrackPan(name string, pan float64) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Pan = clampF(pan, -1, 1)
	m.dev.SetPan(name, t.Pan)
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) SetTrackMute(name string, mute bool) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Mute = mute
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) SetTrackSolo(name string, solo bool) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Solo = solo
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) ToggleMute(name string) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Mute = !t.Mute
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) ToggleSolo(name string) error {
	m.mu.Lock()
	t, ok := m.byName[name]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTrack
	}
	t.Solo = !t.Solo
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Mixer) ClearSolo() {
	m.mu.Lock()
	for _, t := range m.tracks {
		t.Solo = false
	}
	m.pushMixLocked()
	m.mu.Unlock()
	m.notify()
}

func (m *Mixer) SetMasterGain(gain float64) {
	m.mu.Lock()
	m.master = clampF(gain, 0, 1)
	m.dev.SetMaster(m.master)
	m.mu.Unlock()
	m.notify()
}

// ======================================================
// Loop region
// ======================================================

// SetLoopA memasang titik A. Kalau A jatuh di atau setelah B, B dibuang
// supaya region terbalik tidak pernah tersimpan diam-diam.
func (m *Mixer) SetLoopA(sec float64) {
	m.mu.Lock()
	a := clampF(sec, 0, m.dur)
	if m.loop.B != nil && a >= *m.loop.B {
		m.loop.B = nil
		m.loop.Enabled = false
	}
	m.loop.A = &a
	m.mu.Unlock()
	m.notify()
}

// SetLoopB memasang titik B, simetris dengan SetLoopA.
func (m *Mixer) SetLoopB(sec float64) {
	m.mu.Lock()
	b := clampF(sec, 0, m.dur)
	if m.loop.A != nil && b <= *m.loop.A {
		m.loop.A = nil
		m.loop.Enabled = false
	}
	m.loop.B = &b
	m.mu.Unlock()
	m.notify()
}

// ToggleLoop menyalakan loop hanya kalau region valid (A dan B terisi,
// B > A); kalau tidak, permintaan ditolak dan tetap mati.
func (m *Mixer) ToggleLoop() bool {
	m.mu.Lock()
	if m.loop.Enabled {
		m.loop.Enabled = false
	} else if m.loop.A != nil && m.loop.B != nil && *m.loop.B > *m.loop.A {
		m.loop.Enabled = true
	}
	enabled := m.loop.Enabled
	m.mu.Unlock()
	m.notify()
	return enabled
}
