package audio

// TargetSampleRate is the rate every recording is resampled to.
const TargetSampleRate = 16000

// Buffer is an uploaded recording. Filename is informational; the container
// is detected from the content.
type Buffer struct {
	Data     []byte
	Filename string
}

// Normalized is mono 16-bit PCM at SampleRate. It is never mutated after
// construction.
type Normalized struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the length of the recording in seconds.
func (n Normalized) Duration() float64 {
	if n.SampleRate <= 0 {
		return 0
	}
	return float64(len(n.Samples)) / float64(n.SampleRate)
}
