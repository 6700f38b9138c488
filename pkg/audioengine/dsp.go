package audioengine

// NormalizePCM melakukan Peak Normalization
func NormalizePCM(samples []int16) []int16 {
	var max int16 = 0
	for _, s := range samples {
		absS := s
		if s < 0 {
			absS = -s
		}
		if absS > max {
			max = absS
		}
	}
	if max == 0 {
		return samples
	}

	ratio := 32760.0 / float64(max)
	for i := range samples {
		samples[i] = int16(float64(samples[i]) * ratio)
	}
	return samples
}

// ApplyQuickGain menerapkan faktor gain dengan hard clip ke rentang int16
func ApplyQuickGain(samples []int16, factor float64) {
	for i := range samples {
		val := float64(samples[i]) * factor
		if val > 32767 {
			val = 32767
		} else if val < -32768 {
			val = -32768
		}
		samples[i] = int16(val)
	}
}
