package audio

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

const resampleQuality = 4

// decodeNative decodes a sniffed container with the pure-Go beep decoders,
// downmixes to mono, and resamples to TargetSampleRate.
func decodeNative(data []byte, format Format) ([]int16, error) {
	streamer, streamFormat, err := openStream(data, format)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	if streamFormat.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: invalid sample rate %d", format, streamFormat.SampleRate)
	}

	var source beep.Streamer = streamer
	if streamFormat.SampleRate != TargetSampleRate {
		source = beep.Resample(resampleQuality, streamFormat.SampleRate, beep.SampleRate(TargetSampleRate), streamer)
	}

	samples, err := drain(source, decoderGain(format, streamFormat))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	return samples, nil
}

// decoderGain undoes beep's wav decoder scaling, which divides 16 and 24 bit
// PCM by the full unsigned range and so peaks at +/-0.5.
func decoderGain(format Format, streamFormat beep.Format) float64 {
	if format == FormatWAV && streamFormat.Precision >= 2 {
		return 2
	}
	return 1
}

func openStream(data []byte, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case FormatWAV:
		return wav.Decode(bytes.NewReader(data))
	case FormatFLAC:
		return flac.Decode(bytes.NewReader(data))
	case FormatMP3:
		return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case FormatOgg:
		return vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, beep.Format{}, fmt.Errorf("no native decoder for format %q", format)
	}
}

// drain reads the streamer to exhaustion, averaging the two beep channels.
// Mono sources are duplicated into both channels by beep, so averaging is exact.
func drain(s beep.Streamer, gain float64) ([]int16, error) {
	var (
		frames = make([][2]float64, 4096)
		out    []int16
	)
	for {
		n, ok := s.Stream(frames)
		for _, frame := range frames[:n] {
			out = append(out, toPCM16(gain * (frame[0] + frame[1]) / 2))
		}
		if !ok {
			break
		}
	}
	return out, s.Err()
}

func toPCM16(v float64) int16 {
	scaled := math.Round(v * 32767)
	switch {
	case scaled > math.MaxInt16:
		return math.MaxInt16
	case scaled < math.MinInt16:
		return math.MinInt16
	default:
		return int16(scaled)
	}
}
