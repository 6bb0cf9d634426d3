package gamma

import "fmt"

// Ramp is a per-channel lookup table of 16-bit samples. All three channels
// have the same length, the hardware-reported ramp size.
type Ramp struct {
	Red   []uint16
	Green []uint16
	Blue  []uint16
}

// NewRamp allocates a zeroed ramp of the given size.
func NewRamp(size int) Ramp {
	return Ramp{
		Red:   make([]uint16, size),
		Green: make([]uint16, size),
		Blue:  make([]uint16, size),
	}
}

// Size returns the number of samples per channel.
func (r Ramp) Size() int {
	return len(r.Red)
}

// Validate checks that all channels have the same non-zero length.
func (r Ramp) Validate() error {
	if len(r.Red) == 0 {
		return fmt.Errorf("empty gamma ramp")
	}
	if len(r.Green) != len(r.Red) || len(r.Blue) != len(r.Red) {
		return fmt.Errorf("channel size mismatch: red=%d green=%d blue=%d", len(r.Red), len(r.Green), len(r.Blue))
	}
	return nil
}

// Top returns the brightest (last) sample of each channel.
func (r Ramp) Top() (red, green, blue uint16) {
	n := r.Size()
	if n == 0 {
		return 0, 0, 0
	}
	return r.Red[n-1], r.Green[n-1], r.Blue[n-1]
}

// Synthesize expands channel scales into a ramp of the given size.
// Sample i is round(65535 * brightness * i/size * scale); brightness is
// clamped to [0,1] so samples never exceed 65535.
func Synthesize(s Scales, brightness float64, size int) Ramp {
	if size <= 0 {
		return Ramp{}
	}

	b := Clamp(brightness, 0.0, 1.0)
	r := NewRamp(size)
	for i := 0; i < size; i++ {
		g := Multiplier * b * float64(i) / float64(size)
		r.Red[i] = uint16(g*s.R + 0.5)
		r.Green[i] = uint16(g*s.G + 0.5)
		r.Blue[i] = uint16(g*s.B + 0.5)
	}
	return r
}

// Build is Forward followed by Synthesize for a setting.
func Build(setting Setting, size int) Ramp {
	return Synthesize(Forward(setting.Temperature), setting.Brightness, size)
}
