package audioengine

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	stretchFFTSize = 2048
	stretchSynHop  = stretchFFTSize / 4
)

// Stretch merender buf pada kecepatan ratio (1.0 = asli, <1.0 lebih lambat)
// tanpa mengubah pitch. Phase vocoder klasik: hop analisis mengikuti ratio,
// hop sintesis tetap, fase tiap bin dirambatkan sesuai frekuensi
// instannya. ctx dicek di antara frame supaya render yang sudah usang bisa
// dibatalkan tanpa menunggu buffer panjang selesai.
func Stretch(ctx context.Context, buf *Buffer, ratio float64) (*Buffer, error) {
	if buf == nil || buf.Frames() == 0 {
		return nil, fmt.Errorf("stretch: buffer kosong")
	}
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1.0 {
		return nil, fmt.Errorf("stretch: ratio %v di luar (0, 1]", ratio)
	}
	if ratio == 1.0 {
		return buf, nil
	}

	inFrames := buf.Frames()
	outFrames := int(math.Round(float64(inFrames) / ratio))
	out := NewBuffer(buf.NumChannels(), outFrames, buf.Rate)

	anaHop := float64(stretchSynHop) * ratio
	win := window.Hann(stretchFFTSize)

	for c := range buf.Data {
		if err := stretchChannel(ctx, buf.Data[c], out.Data[c], anaHop, win); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func stretchChannel(ctx context.Context, in, out []float64, anaHop float64, win []float64) error {
	n := stretchFFTSize
	half := n / 2

	steps := 0
	if len(in) > n {
		steps = int(float64(len(in)-n) / anaHop)
	}

	prevPhase := make([]float64, half+1)
	sumPhase := make([]float64, half+1)
	frame := make([]float64, n)
	synth := make([]complex128, n)
	acc := make([]float64, len(out)+n)
	norm := make([]float64, len(out)+n)

	for s := 0; s <= steps; s++ {
		if s%64 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		pos := int(float64(s) * anaHop)
		// Input lebih pendek dari window: sisa frame diisi silence.
		for i := 0; i < n; i++ {
			v := 0.0
			if pos+i < len(in) {
				v = in[pos+i]
			}
			frame[i] = v * win[i]
		}

		spectrum := fft.FFTReal(frame)

		for k := 0; k <= half; k++ {
			mag := cmplx.Abs(spectrum[k])
			phase := cmplx.Phase(spectrum[k])

			omega := 2 * math.Pi * float64(k) / float64(n)
			delta := phase - prevPhase[k] - omega*anaHop
			delta = wrapPhase(delta)
			trueFreq := omega + delta/anaHop

			prevPhase[k] = phase
			sumPhase[k] += trueFreq * float64(stretchSynHop)

			synth[k] = cmplx.Rect(mag, sumPhase[k])
			if k > 0 && k < half {
				synth[n-k] = cmplx.Conj(synth[k])
			}
		}

		resynth := fft.IFFT(synth)
		outPos := s * stretchSynHop
		for i := 0; i < n && outPos+i < len(acc); i++ {
			acc[outPos+i] += real(resynth[i]) * win[i]
			norm[outPos+i] += win[i] * win[i]
		}
	}

	for i := range out {
		if norm[i] > 1e-9 {
			out[i] = acc[i] / norm[i]
		}
	}
	return nil
}

func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return p
}
