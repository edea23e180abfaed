package audio

import "math"

// Level estimates loudness of a PCM16 frame as a 0-100 value from the RMS
// amplitude. Visualization only; never use it for control decisions.
func Level(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}
	var sumSq int64
	for _, s := range samples {
		v := int64(s)
		sumSq += v * v
	}
	meanSq := float64(sumSq) / float64(len(samples))
	rms := math.Sqrt(meanSq)
	// Speech RMS rarely approaches full scale; apply a fixed gain so normal
	// speaking volume lands mid-scale.
	lvl := int(rms * 100 * 4 / 32768)
	if lvl > 100 {
		lvl = 100
	}
	return lvl
}

// LevelFromBytes is Level over a PCM16LE byte payload.
func LevelFromBytes(pcm []byte) int {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return Level(samples)
}
