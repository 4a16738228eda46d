// Package audio provides WAV metadata probing and local playback of
// session recordings.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// headerSize is the size of a canonical PCM WAV header, which is what
// the recorder writes.
const headerSize = 44

// Info is WAV metadata extracted from the file header without
// decoding any samples.
type Info struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	DataSize      uint32  `json:"data_size_bytes"`
	Duration      float64 `json:"duration_seconds"`
}

// Probe parses a canonical WAV header and returns the file's metadata.
func Probe(header []byte) (*Info, error) {
	if len(header) < headerSize {
		return nil, fmt.Errorf("WAV header too short: need %d bytes, got %d", headerSize, len(header))
	}

	if string(header[0:4]) != "RIFF" {
		return nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}
	if string(header[12:16]) != "fmt " {
		return nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if string(header[36:40]) != "data" {
		return nil, fmt.Errorf("invalid WAV file: missing data chunk")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	if audioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", audioFormat)
	}

	info := &Info{
		Channels:      binary.LittleEndian.Uint16(header[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(header[24:28]),
		BitsPerSample: binary.LittleEndian.Uint16(header[34:36]),
		DataSize:      binary.LittleEndian.Uint32(header[40:44]),
	}

	if info.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}
	if info.Channels == 0 {
		return nil, fmt.Errorf("invalid channel count: 0")
	}
	if info.BitsPerSample == 0 {
		return nil, fmt.Errorf("invalid bit depth: 0")
	}

	byteRate := float64(info.SampleRate) * float64(info.Channels) * float64(info.BitsPerSample) / 8
	info.Duration = float64(info.DataSize) / byteRate

	return info, nil
}

// ProbeFile reads just the header of the WAV file at path.
func ProbeFile(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	return Probe(header)
}
