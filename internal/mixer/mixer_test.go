package mixer

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"stemmix/pkg/audioengine"
)

// ===============================
// Test doubles
// ===============================

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type startCall struct {
	rate    int
	sources []Source
}

type fakeDevice struct {
	mu     sync.Mutex
	starts []startCall
	clears int
	gains  map[string]float64
	pans   map[string]float64
	master float64
	errOn  error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		gains:  make(map[string]float64),
		pans:   make(map[string]float64),
		master: 1.0,
	}
}

func (d *fakeDevice) Start(rate int, sources []Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.errOn != nil {
		return d.errOn
	}
	cp := make([]Source, len(sources))
	copy(cp, sources)
	d.starts = append(d.starts, startCall{rate: rate, sources: cp})
	return nil
}

func (d *fakeDevice) Clear() {
	d.mu.Lock()
	d.clears++
	d.mu.Unlock()
}

func (d *fakeDevice) SetGain(name string, gain float64) {
	d.mu.Lock()
	d.gains[name] = gain
	d.mu.Unlock()
}

func (d *fakeDevice) SetPan(name string, pan float64) {
	d.mu.Lock()
	d.pans[name] = pan
	d.mu.Unlock()
}

func (d *fakeDevice) SetMaster(gain float64) {
	d.mu.Lock()
	d.master = gain
	d.mu.Unlock()
}

func (d *fakeDevice) gain(name string) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gains[name]
}

func (d *fakeDevice) pan(name string) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pans[name]
}

func (d *fakeDevice) masterGain() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.master
}

func (d *fakeDevice) startCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.starts)
}

func (d *fakeDevice) lastStart() (startCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.starts) == 0 {
		return startCall{}, false
	}
	return d.starts[len(d.starts)-1], true
}

// ===============================
// Helpers
// ===============================

const testRate = 1000

func testBuffer(seconds float64) *audioengine.Buffer {
	return audioengine.NewBuffer(2, int(seconds*testRate), testRate)
}

func testStems(secs map[string]float64) []DecodedStem {
	stems := make([]DecodedStem, 0, len(secs))
	for _, name := range []string{"drums", "bass", "vocals", "other"} {
		if d, ok := secs[name]; ok {
			stems = append(stems, DecodedStem{Name: name, Buffer: testBuffer(d)})
		}
	}
	return stems
}

// scaledStretch mengembalikan buffer dengan panjang diskala 1/ratio.
func scaledStretch(buf *audioengine.Buffer, ratio float64) *audioengine.Buffer {
	frames := int(math.Round(float64(buf.Frames()) / ratio))
	return audioengine.NewBuffer(buf.NumChannels(), frames, buf.Rate)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timeout menunggu: %s", what)
}

// ===============================
// Load
// ===============================

func TestLoadDecodedRejectsBadSets(t *testing.T) {
	cases := []struct {
		name  string
		stems []DecodedStem
	}{
		{"empty set", nil},
		{"nil buffer", []DecodedStem{{Name: "drums"}}},
		{"zero frames", []DecodedStem{
			{Name: "drums", Buffer: audioengine.NewBuffer(2, 0, testRate)},
		}},
		{"rate mismatch", []DecodedStem{
			{Name: "drums", Buffer: audioengine.NewBuffer(2, 100, 44100)},
			{Name: "bass", Buffer: audioengine.NewBuffer(2, 100, 48000)},
		}},
		{"duplicate name", []DecodedStem{
			{Name: "drums", Buffer: testBuffer(1)},
			{Name: "drums", Buffer: testBuffer(1)},
		}},
	}

	for _, tc := range cases {
		m := New(newFakeDevice())
		if err := m.LoadDecoded(tc.stems, 1.0); err == nil {
			t.Errorf("%s: LoadDecoded = nil, mau error", tc.name)
		}
		m.Close()
	}
}

func TestLoadReplacesEntireSet(t *testing.T) {
	dev := newFakeDevice()
	m := New(dev, WithRenderDelay(0))
	defer m.Close()

	if err := m.LoadDecoded(testStems(map[string]float64{"drums": 10, "bass": 8}), 1.0); err != nil {
		t.Fatalf("load pertama: %v", err)
	}
	if err := m.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	m.SetLoopA(1)
	m.SetLoopB(3)
	m.ToggleLoop()

	if err := m.LoadDecoded(testStems(map[string]float64{"vocals": 4}), 1.0); err != nil {
		t.Fatalf("load kedua: %v", err)
	}

	st := m.Status()
	if st.State != Stopped {
		t.Errorf("State = %v, mau Stopped", st.State)
	}
	if st.Duration != 4 {
		t.Errorf("Duration = %v, mau 4", st.Duration)
	}
	if st.Tempo != 1.0 {
		t.Errorf("Tempo = %v, mau 1.0", st.Tempo)
	}
	if st.Loop.A != nil || st.Loop.B != nil || st.Loop.Enabled {
		t.Errorf("Loop = %+v, mau kosong", st.Loop)
	}
	if len(st.Tracks) != 1 || st.Tracks[0].Name != "vocals" {
		t.Errorf("Tracks = %+v, mau [vocals]", st.Tracks)
	}
}

func TestLoadDecodedBundleTempoTriggersRender(t *testing.T) {
	dev := newFakeDevice()
	m := New(dev,
		WithRenderDelay(0),
		WithStretch(func(ctx context.Context, buf *audioengine.Buffer, ratio float64) (*audioengine.Buffer, error) {
			return scaledStretch(buf, ratio), nil
		}),
	)
	defer m.Close()

	if err := m.LoadDecoded(testStems(map[string]float64{"drums": 10}), 0.5); err != nil {
		t.Fatalf("load: %v", err)
	}

	waitFor(t, "render tempo bundle", func() bool {
		st := m.Status()
		return !st.Rendering && st.Tempo == 0.5
	})
	if d := m.Status().Duration; d != 20 {
		t.Errorf("Duration = %v, mau 20", d)
	}
}

// ===============================
// Status / Subscribe
// ===============================

func TestSubscribeReceivesTransitions(t *testing.T) {
	dev := newFakeDevice()
	m := New(dev, WithClock(newFakeClock().Now))
	defer m.Close()

	if err := m.LoadDecoded(testStems(map[string]float64{"drums": 10}), 1.0); err != nil {
		t.Fatalf("load: %v", err)
	}

	ch := m.Subscribe()
	if err := m.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}

	select {
	case st := <-ch:
		if st.State != Playing {
			t.Errorf("State = %v, mau Playing", st.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tidak ada snapshot setelah Play")
	}
}

func TestStatusClampsPositionToDuration(t *testing.T) {
	clk := newFakeClock()
	m := New(newFakeDevice(), WithClock(clk.Now), WithPollInterval(time.Hour))
	defer m.Close()

	if err := m.LoadDecoded(testStems(map[string]float64{"drums": 5}), 1.0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}

	// Poller sengaja dimatikan (interval 1 jam): clock lewat durasi.
	clk.Advance(30 * time.Second)
	if st := m.Status(); st.Position != st.Duration {
		t.Errorf("Position = %v, mau di-clamp ke %v", st.Position, st.Duration)
	}
}
