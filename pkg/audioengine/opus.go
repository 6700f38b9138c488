package audioengine

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hraban/opus"

	"stemmix/pkg/spec"
)

// DecodeOpusFrames merubah payload frames (hasil pack bundle) kembali
// menjadi Buffer standar 48kHz stereo.
func DecodeOpusFrames(frames [][]byte) (*Buffer, error) {
	dec, err := opus.NewDecoder(spec.SampleRate, spec.Channels)
	if err != nil {
		return nil, err
	}

	var fullPcm []int16
	frameSize := spec.SampleRate / 50 // 20ms

	for _, frame := range frames {
		out := make([]int16, frameSize*spec.Channels)
		n, err := dec.Decode(frame, out)
		if err != nil {
			return nil, err
		}
		fullPcm = append(fullPcm, out[:n*spec.Channels]...)
	}

	return fromInterleaved(fullPcm, spec.Channels, spec.SampleRate)
}

type EncoderResult struct {
	Frame []byte
	Error error
}

// EncodeOptions mengatur pra-proses PCM sebelum frame masuk encoder.
type EncodeOptions struct {
	Normalize bool    // puncak global dinaikkan ke full scale (dua pass)
	Gain      float64 // faktor gain cepat, 0 atau 1 berarti tanpa perubahan
}

// StreamEncodeWavToOpus membaca WAV 48kHz stereo dan mengalirkan frame
// Opus 20ms ke resultChan. Tanpa Normalize file tidak pernah ditahan utuh
// di memori. Mengembalikan durasi dan fingerprint PCM yang ter-encode.
func StreamEncodeWavToOpus(inputPath string, opts EncodeOptions, resultChan chan<- EncoderResult) (float64, string, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return 0, "", err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)

	enc, err := opus.NewEncoder(spec.SampleRate, spec.Channels, opus.AppAudio)
	if err != nil {
		return 0, "", err
	}

	frameSize := spec.SampleRate / 50
	pcmBuf := make([]int16, frameSize*spec.Channels)
	opusBuf := make([]byte, 1500)

	emit := func() error {
		outputSize, err := enc.Encode(pcmBuf, opusBuf)
		if err != nil {
			resultChan <- EncoderResult{Error: err}
			return err
		}
		frame := make([]byte, outputSize)
		copy(frame, opusBuf[:outputSize])
		resultChan <- EncoderResult{Frame: frame}
		return nil
	}

	totalSamples := 0

	if opts.Normalize {
		// Normalisasi butuh puncak global: seluruh PCM dibaca dulu.
		full, err := dec.FullPCMBuffer()
		if err != nil {
			return 0, "", err
		}
		pcm := make([]int16, len(full.Data))
		for i, v := range full.Data {
			pcm[i] = int16(v)
		}
		pcm = NormalizePCM(pcm)
		if opts.Gain > 0 && opts.Gain != 1.0 {
			ApplyQuickGain(pcm, opts.Gain)
		}

		for i := 0; i < len(pcm); i += len(pcmBuf) {
			batch := len(pcmBuf)
			if i+batch > len(pcm) {
				batch = len(pcm) - i
				// Padding silence untuk frame terakhir
				for j := range pcmBuf {
					pcmBuf[j] = 0
				}
			}
			copy(pcmBuf[:batch], pcm[i:i+batch])
			if err := emit(); err != nil {
				return 0, "", err
			}
			totalSamples += batch
		}

		duration := float64(totalSamples) / float64(spec.SampleRate) / float64(spec.Channels)
		return duration, Fingerprint(pcm), nil
	}

	// Baca 1 detik per siklus I/O agar efisien
	fp := NewFingerprint()
	intBuf := &audio.IntBuffer{
		Data:   make([]int, spec.SampleRate*spec.Channels),
		Format: &audio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
	}

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil && err != io.EOF {
			return 0, "", err
		}
		if n == 0 {
			break
		}

		// Pecah isi intBuf menjadi frame-frame Opus 20ms
		for i := 0; i < n; i += len(pcmBuf) {
			batch := len(pcmBuf)
			if i+batch > n {
				batch = n - i
				// Padding silence untuk frame terakhir
				for j := range pcmBuf {
					pcmBuf[j] = 0
				}
			}
			for j := 0; j < batch; j++ {
				pcmBuf[j] = int16(intBuf.Data[i+j])
			}
			if opts.Gain > 0 && opts.Gain != 1.0 {
				ApplyQuickGain(pcmBuf[:batch], opts.Gain)
			}

			if err := emit(); err != nil {
				return 0, "", err
			}
			fp.Write(pcmBuf[:batch])
			totalSamples += batch
		}

		if err == io.EOF {
			break
		}
	}

	duration := float64(totalSamples) / float64(spec.SampleRate) / float64(spec.Channels)
	return duration, fp.Sum(), nil
}
