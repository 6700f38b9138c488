package mixer

import (
	"context"
	"time"

	"stemmix/pkg/audioengine"
	"stemmix/pkg/spec"
)

// SetTempo meminta render set buffer baru pada ratio [0.2, 1.0]. Permintaan
// beruntun (drag slider) dikoalisi lewat jendela debounce; RenderEpoch
// menjamin hanya permintaan terakhir yang boleh apply, apa pun urutan
// selesainya. Saat Playing, source lama dihentikan dan posisi dibekukan
// sampai render selesai.
func (m *Mixer) SetTempo(ratio float64) {
	ratio = clampF(ratio, spec.TempoMin, spec.TempoMax)

	m.mu.Lock()
	if m.closed || len(m.tracks) == 0 {
		m.mu.Unlock()
		return
	}
	if ratio == m.tempo && !m.rendering {
		m.mu.Unlock()
		return
	}

	m.epoch++
	e := m.epoch
	if m.renderCancel != nil {
		m.renderCancel()
		m.renderCancel = nil
	}
	m.rendering = true

	// Transport tetap responsif: source lama berhenti sekarang, posisi
	// dibekukan, state Playing tidak berubah.
	if m.state == Playing && !m.frozen {
		m.offset = m.positionLocked()
		m.frozen = true
		m.stopPollerLocked()
		m.dev.Clear()
	}
	delay := m.renderDelay
	m.mu.Unlock()
	m.notify()

	if delay > 0 {
		time.AfterFunc(delay, func() { m.runRender(e, ratio) })
	} else {
		go m.runRender(e, ratio)
	}
}

// runRender menstretch semua buffer ASLI (bukan hasil render sebelumnya,
// supaya error stretch tidak menumpuk) di luar lock.
func (m *Mixer) runRender(e uint64, ratio float64) {
	m.mu.Lock()
	if e != m.epoch {
		// Tersusul permintaan lebih baru selama jendela debounce.
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.renderCancel = cancel
	stretch := m.stretch
	names := make([]string, len(m.tracks))
	originals := make([]*audioengine.Buffer, len(m.tracks))
	for i, t := range m.tracks {
		names[i] = t.Name
		originals[i] = t.Original
	}
	m.mu.Unlock()

	rendered := make([]*audioengine.Buffer, len(originals))
	var rerr error
	for i, orig := range originals {
		if ratio == 1.0 {
			continue // identity: kembali ke buffer asli
		}
		out, err := stretch(ctx, orig, ratio)
		if err != nil {
			rerr = &RenderError{Track: names[i], Err: err}
			break
		}
		rendered[i] = out
	}
	m.finishRender(e, ratio, rendered, rerr)
}

func (m *Mixer) finishRender(e uint64, ratio float64, rendered []*audioengine.Buffer, rerr error) {
	m.mu.Lock()
	if e != m.epoch {
		// Hasil basi: dibuang tanpa efek samping apa pun.
		m.mu.Unlock()
		return
	}
	m.rendering = false
	m.renderCancel = nil

	if rerr != nil {
		// Set buffer sebelumnya tetap aktif; transport tidak boleh
		// ditinggal tanpa buffer playable.
		m.lastErr = rerr.Error()
		if m.state == Playing && m.frozen {
			if err := m.startSourcesLocked(m.offset); err != nil {
				m.lastErr = err.Error()
				m.stopTransportLocked()
			} else {
				m.startPollerLocked()
			}
		}
		m.mu.Unlock()
		m.notify()
		return
	}

	// Swap atomik: semua track ganti bersama, tidak pernah sebagian.
	for i, t := range m.tracks {
		t.Rendered = rendered[i]
	}
	oldTempo := m.tempo
	m.tempo = ratio
	m.dur = m.ensembleLocked()
	m.lastErr = ""

	// Posisi musikal dipertahankan: offset (dan loop region) diskala
	// r_lama/r_baru. Aproksimasi — persis hanya kalau skala panjang
	// stretch linier.
	scale := oldTempo / ratio
	m.offset = clampF(m.offset*scale, 0, m.dur)
	if m.loop.A != nil {
		a := clampF(*m.loop.A*scale, 0, m.dur)
		m.loop.A = &a
	}
	if m.loop.B != nil {
		b := clampF(*m.loop.B*scale, 0, m.dur)
		m.loop.B = &b
	}
	if m.loop.A != nil && m.loop.B != nil && *m.loop.B <= *m.loop.A {
		m.loop.B = nil
		m.loop.Enabled = false
	}

	if m.state == Playing {
		m.dev.Clear()
		if err := m.startSourcesLocked(m.offset); err != nil {
			m.lastErr = err.Error()
			m.stopTransportLocked()
		} else {
			m.startPollerLocked()
		}
	}
	m.mu.Unlock()
	m.notify()
}
