package audioengine

// Buffer menampung PCM hasil decode: satu slice float64 per channel,
// nilai sampel di rentang [-1, 1]. Immutable setelah dibuat — pipeline
// mengganti buffer secara utuh, tidak pernah mutasi di tempat.
type Buffer struct {
	Data [][]float64
	Rate int
}

func NewBuffer(channels, frames, rate int) *Buffer {
	data := make([][]float64, channels)
	for c := range data {
		data[c] = make([]float64, frames)
	}
	return &Buffer{Data: data, Rate: rate}
}

func (b *Buffer) NumChannels() int {
	return len(b.Data)
}

func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration mengembalikan durasi buffer dalam detik.
func (b *Buffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.Rate)
}

// Sample membaca satu frame sebagai pasangan stereo. Buffer mono
// diduplikasi ke kedua sisi.
func (b *Buffer) Sample(frame int) (left, right float64) {
	left = b.Data[0][frame]
	if len(b.Data) > 1 {
		right = b.Data[1][frame]
	} else {
		right = left
	}
	return left, right
}
