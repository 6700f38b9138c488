package mixer

import (
	"testing"
)

func newGraphMixer(t *testing.T) (*Mixer, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	m := New(dev)
	secs := map[string]float64{"drums": 10, "bass": 10, "vocals": 10}
	if err := m.LoadDecoded(testStems(secs), 1.0); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(m.Close)
	return m, dev
}

func TestLoadPushesUnityMix(t *testing.T) {
	_, dev := newGraphMixer(t)

	for _, name := range []string{"drums", "bass", "vocals"} {
		if g := dev.gain(name); g != 1.0 {
			t.Errorf("gain %s = %v, mau 1.0", name, g)
		}
		if p := dev.pan(name); p != 0 {
			t.Errorf("pan %s = %v, mau 0", name, p)
		}
	}
	if g := dev.masterGain(); g != 1.0 {
		t.Errorf("master = %v, mau 1.0", g)
	}
}

func TestMuteSilencesOnlyThatTrack(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.SetTrackMute("drums", true); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if g := dev.gain("drums"); g != 0 {
		t.Errorf("gain drums = %v, mau 0", g)
	}
	if g := dev.gain("bass"); g != 1.0 {
		t.Errorf("gain bass = %v, mau 1.0", g)
	}

	if err := m.SetTrackMute("drums", false); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	if g := dev.gain("drums"); g != 1.0 {
		t.Errorf("gain drums setelah unmute = %v, mau 1.0", g)
	}
}

func TestSoloIsEnsembleWidePriority(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.SetTrackSolo("bass", true); err != nil {
		t.Fatalf("solo: %v", err)
	}
	if g := dev.gain("bass"); g != 1.0 {
		t.Errorf("gain bass = %v, mau 1.0", g)
	}
	if g := dev.gain("drums"); g != 0 {
		t.Errorf("gain drums = %v, mau 0 (kalah solo)", g)
	}
	if g := dev.gain("vocals"); g != 0 {
		t.Errorf("gain vocals = %v, mau 0 (kalah solo)", g)
	}

	// Solo kedua: keduanya terdengar.
	if err := m.SetTrackSolo("vocals", true); err != nil {
		t.Fatalf("solo kedua: %v", err)
	}
	if g := dev.gain("vocals"); g != 1.0 {
		t.Errorf("gain vocals = %v, mau 1.0", g)
	}
	if g := dev.gain("drums"); g != 0 {
		t.Errorf("gain drums = %v, mau tetap 0", g)
	}
}

func TestMutedSoloTrackStaysSilent(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.SetTrackMute("bass", true); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if err := m.SetTrackSolo("bass", true); err != nil {
		t.Fatalf("solo: %v", err)
	}

	// Mute menang atas solo di track yang sama; track lain tetap
	// tersingkir karena ada solo aktif di ensemble.
	if g := dev.gain("bass"); g != 0 {
		t.Errorf("gain bass = %v, mau 0", g)
	}
	if g := dev.gain("drums"); g != 0 {
		t.Errorf("gain drums = %v, mau 0", g)
	}
}

func TestClearSoloRestoresEveryone(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.ToggleSolo("drums"); err != nil {
		t.Fatalf("toggle solo: %v", err)
	}
	if err := m.ToggleSolo("bass"); err != nil {
		t.Fatalf("toggle solo: %v", err)
	}
	m.ClearSolo()

	for _, name := range []string{"drums", "bass", "vocals"} {
		if g := dev.gain(name); g != 1.0 {
			t.Errorf("gain %s = %v, mau 1.0", name, g)
		}
	}
	for _, ts := range m.Status().Tracks {
		if ts.Solo {
			t.Errorf("track %s masih solo setelah ClearSolo", ts.Name)
		}
	}
}

func TestToggleMuteFlips(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.ToggleMute("vocals"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if g := dev.gain("vocals"); g != 0 {
		t.Errorf("gain = %v, mau 0", g)
	}
	if err := m.ToggleMute("vocals"); err != nil {
		t.Fatalf("toggle balik: %v", err)
	}
	if g := dev.gain("vocals"); g != 1.0 {
		t.Errorf("gain = %v, mau 1.0", g)
	}
}

func TestGainAndPanClamped(t *testing.T) {
	m, dev := newGraphMixer(t)

	cases := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{2.0, 1.0},
		{-0.3, 0},
	}
	for _, tc := range cases {
		if err := m.SetTrackGain("drums", tc.in); err != nil {
			t.Fatalf("gain %v: %v", tc.in, err)
		}
		if g := dev.gain("drums"); g != tc.want {
			t.Errorf("SetTrackGain(%v): device gain = %v, mau %v", tc.in, g, tc.want)
		}
	}

	panCases := []struct {
		in   float64
		want float64
	}{
		{-0.5, -0.5},
		{-2, -1},
		{2, 1},
	}
	for _, tc := range panCases {
		if err := m.SetTrackPan("bass", tc.in); err != nil {
			t.Fatalf("pan %v: %v", tc.in, err)
		}
		if p := dev.pan("bass"); p != tc.want {
			t.Errorf("SetTrackPan(%v): device pan = %v, mau %v", tc.in, p, tc.want)
		}
	}
}

func TestGainRememberedWhileMuted(t *testing.T) {
	m, dev := newGraphMixer(t)

	if err := m.SetTrackMute("drums", true); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if err := m.SetTrackGain("drums", 0.7); err != nil {
		t.Fatalf("gain: %v", err)
	}
	if g := dev.gain("drums"); g != 0 {
		t.Errorf("gain saat mute = %v, mau 0", g)
	}

	if err := m.SetTrackMute("drums", false); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	if g := dev.gain("drums"); g != 0.7 {
		t.Errorf("gain setelah unmute = %v, mau 0.7 (tersimpan)", g)
	}
}

func TestUnknownTrackRejected(t *testing.T) {
	m, _ := newGraphMixer(t)

	if err := m.SetTrackGain("guitar", 0.5); err != ErrUnknownTrack {
		t.Errorf("SetTrackGain = %v, mau ErrUnknownTrack", err)
	}
	if err := m.SetTrackPan("guitar", 0); err != ErrUnknownTrack {
		t.Errorf("SetTrackPan = %v, mau ErrUnknownTrack", err)
	}
	if err := m.ToggleMute("guitar"); err != ErrUnknownTrack {
		t.Errorf("ToggleMute = %v, mau ErrUnknownTrack", err)
	}
	if err := m.ToggleSolo("guitar"); err != ErrUnknownTrack {
		t.Errorf("ToggleSolo = %v, mau ErrUnknownTrack", err)
	}
}

func TestMasterGainClamped(t *testing.T) {
	m, dev := newGraphMixer(t)

	m.SetMasterGain(0.4)
	if g := dev.masterGain(); g != 0.4 {
		t.Errorf("master = %v, mau 0.4", g)
	}
	m.SetMasterGain(5)
	if g := dev.masterGain(); g != 1.0 {
		t.Errorf("master = %v, mau 1.0", g)
	}
}
