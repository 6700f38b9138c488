package mixer

import "encoding/json"

// State represents the transport state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// LoopRegion adalah wilayah A/B. Enabled hanya boleh true kalau A dan B
// terisi dan B > A; endpoint yang bertabrakan dibersihkan otomatis.
type LoopRegion struct {
	A       *float64 `json:"a"`
	B       *float64 `json:"b"`
	Enabled bool     `json:"enabled"`
}

type TrackStatus struct {
	Name string  `json:"name"`
	Gain float64 `json:"gain"`
	Pan  float64 `json:"pan"`
	Mute bool    `json:"mute"`
	Solo bool    `json:"solo"`
}

// Status adalah snapshot yang dipublikasikan ke observer setiap transisi.
type Status struct {
	State      State         `json:"state"`
	Position   float64       `json:"position"`
	Duration   float64       `json:"duration"`
	Tempo      float64       `json:"tempo"`
	Rendering  bool          `json:"rendering"`
	MasterGain float64       `json:"master_gain"`
	Loop       LoopRegion    `json:"loop"`
	Tracks     []TrackStatus `json:"tracks"`
	LastError  string        `json:"last_error,omitempty"`
}

func (m *Mixer) statusLocked() Status {
	st := Status{
		State:      m.state,
		Position:   m.positionLocked(),
		Duration:   m.dur,
		Tempo:      m.tempo,
		Rendering:  m.rendering,
		MasterGain: m.master,
		Loop:       m.loop,
		LastError:  m.lastErr,
	}
	if st.Position > st.Duration {
		st.Position = st.Duration
	}
	for _, t := range m.tracks {
		st.Tracks = append(st.Tracks, TrackStatus{
			Name: t.Name,
			Gain: t.Gain,
			Pan:  t.Pan,
			Mute: t.Mute,
			Solo: t.Solo,
		})
	}
	return st
}

// Status mengembalikan snapshot kondisi mixer saat ini.
func (m *Mixer) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Subscribe mendaftarkan observer. Pengiriman non-blocking: observer yang
// lambat kehilangan snapshot, bukan menahan transport.
func (m *Mixer) Subscribe() <-chan Status {
	ch := make(chan Status, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Mixer) notify() {
	m.mu.Lock()
	st := m.statusLocked()
	subs := make([]chan Status, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- st:
		default:
		}
	}
}
