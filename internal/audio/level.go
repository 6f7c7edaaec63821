package audio

// levelStride controls how sparsely Level samples a frame. Every tenth
// sample is enough for a UI meter.
const levelStride = 10

// Level computes an approximate instantaneous input level for a frame by
// sparse-sampling the absolute amplitude. The result is clamped to [0, 1]
// and is meant for UI feedback only, never for control decisions.
func Level(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := 0; i < len(frame); i += levelStride {
		v := float64(frame[i]) / 32768.0
		if v < 0 {
			v = -v
		}
		sum += v
		count++
	}

	level := sum / float64(count) * 5
	if level > 1 {
		level = 1
	}
	return level
}
