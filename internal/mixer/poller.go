package mixer

import (
	"time"
)

// Position/loop poller: satu goroutine per sesi play, dijaga nomor
// generasi. Poller yang dibatalkan tidak boleh pernah menembak lagi, dan
// poller basi dari sesi sebelumnya tidak boleh menimpa state sesi baru.

func (m *Mixer) startPollerLocked() {
	m.pollGen++
	gen := m.pollGen
	quit := make(chan struct{})
	m.pollQuit = quit
	go m.runPoller(gen, quit)
}

func (m *Mixer) stopPollerLocked() {
	m.pollGen++
	if m.pollQuit != nil {
		close(m.pollQuit)
		m.pollQuit = nil
	}
}

func (m *Mixer) runPoller(gen uint64, quit chan struct{}) {
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		if gen != m.pollGen || m.state != Playing || m.frozen {
			m.mu.Unlock()
			return
		}

		pos := m.positionLocked()

		// Ujung ensemble tercapai: transport berhenti dan rewind.
		if m.dur > 0 && pos >= m.dur {
			m.stopTransportLocked()
			m.mu.Unlock()
			m.notify()
			return
		}

		// Batas loop B: hard seek ke A me-restart source sekaligus.
		if m.loop.Enabled && m.loop.A != nil && m.loop.B != nil && pos >= *m.loop.B {
			m.dev.Clear()
			if err := m.startSourcesLocked(*m.loop.A); err != nil {
				m.lastErr = err.Error()
				m.stopTransportLocked()
				m.mu.Unlock()
				m.notify()
				return
			}
		}
		m.mu.Unlock()

		// Publikasikan posisi teramati untuk observer.
		m.notify()
	}
}
