package audioengine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hraban/opus"

	"stemmix/pkg/spec"
)

// Decode menebak format dari magic bytes lalu menghasilkan Buffer.
// Didukung: WAV (RIFF) dan Ogg Opus (OggS, standar 48kHz stereo).
func Decode(data []byte) (*Buffer, error) {
	if len(data) >= 4 {
		switch string(data[:4]) {
		case "RIFF":
			return decodeWAV(data)
		case "OggS":
			return decodeOggOpus(data)
		}
	}
	return nil, fmt.Errorf("format audio tidak dikenal (hanya WAV / Ogg Opus)")
}

func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("wav kosong")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("wav tanpa channel")
	}

	bits := int(dec.BitDepth)
	if bits == 0 {
		bits = 16
	}
	scale := float64(int64(1) << (bits - 1))

	frames := len(buf.Data) / channels
	out := NewBuffer(channels, frames, buf.Format.SampleRate)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out.Data[c][i] = float64(buf.Data[i*channels+c]) / scale
		}
	}
	return out, nil
}

func decodeOggOpus(data []byte) (*Buffer, error) {
	s, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	pcm := make([]int16, spec.SampleRate*spec.Channels) // 1 detik per siklus baca
	var interleaved []int16

	for {
		n, err := s.Read(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		interleaved = append(interleaved, pcm[:n*spec.Channels]...)
	}

	return fromInterleaved(interleaved, spec.Channels, spec.SampleRate)
}

func fromInterleaved(pcm []int16, channels, rate int) (*Buffer, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("pcm kosong")
	}
	frames := len(pcm) / channels
	out := NewBuffer(channels, frames, rate)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out.Data[c][i] = float64(pcm[i*channels+c]) / 32768.0
		}
	}
	return out, nil
}
