package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// WAVInfo is the format and data layout of a RIFF/WAVE file.
type WAVInfo struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataOffset    int64
	DataSize      int64
}

// Duration returns the playing time of the data chunk.
func (w WAVInfo) Duration() time.Duration {
	if w.ByteRate == 0 {
		return 0
	}
	return time.Duration(w.DataSize * int64(time.Second) / int64(w.ByteRate))
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// ReadWAVInfo walks the RIFF chunks of r until it finds both fmt and data.
// A data size running past the end of the stream is clamped to what is
// actually present.
func ReadWAVInfo(r io.ReadSeeker) (WAVInfo, error) {
	var info WAVInfo

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return info, errNotWAV
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return info, errNotWAV
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return info, err
	}
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return info, err
	}

	offset := int64(12)
	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return info, fmt.Errorf("wav: data chunk not found")
		}
		id := string(chunk[0:4])
		length := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		offset += 8

		switch id {
		case "fmt ":
			if length < 16 {
				return info, fmt.Errorf("wav: fmt chunk too short")
			}
			var f [16]byte
			if _, err := io.ReadFull(r, f[:]); err != nil {
				return info, err
			}
			info.AudioFormat = binary.LittleEndian.Uint16(f[0:2])
			info.Channels = binary.LittleEndian.Uint16(f[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(f[4:8])
			info.ByteRate = binary.LittleEndian.Uint32(f[8:12])
			info.BlockAlign = binary.LittleEndian.Uint16(f[12:14])
			info.BitsPerSample = binary.LittleEndian.Uint16(f[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return info, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			info.DataOffset = offset
			info.DataSize = length
			if remaining := size - offset; info.DataSize > remaining {
				info.DataSize = remaining
			}
			return info, nil
		}

		next := offset + length + length%2
		if _, err := r.Seek(next, io.SeekStart); err != nil {
			return info, err
		}
		offset = next
	}
}

// WAVDuration reads the duration of a WAV file from its header.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := ReadWAVInfo(f)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}

// WAVHeader builds a canonical 44-byte PCM header for dataSize bytes of
// audio in the format described by info.
func WAVHeader(info WAVInfo, dataSize int) []byte {
	var b bytes.Buffer
	b.Grow(44)
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, info.AudioFormat)
	_ = binary.Write(&b, binary.LittleEndian, info.Channels)
	_ = binary.Write(&b, binary.LittleEndian, info.SampleRate)
	_ = binary.Write(&b, binary.LittleEndian, info.ByteRate)
	_ = binary.Write(&b, binary.LittleEndian, info.BlockAlign)
	_ = binary.Write(&b, binary.LittleEndian, info.BitsPerSample)
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(dataSize))
	return b.Bytes()
}

// SplitWAV cuts a WAV file into self-contained WAV payloads of at most
// chunk duration each, split on sample frame boundaries.
func SplitWAV(path string, chunk time.Duration) ([][]byte, WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVInfo{}, err
	}
	defer f.Close()

	info, err := ReadWAVInfo(f)
	if err != nil {
		return nil, info, err
	}
	if info.ByteRate == 0 || info.BlockAlign == 0 {
		return nil, info, fmt.Errorf("wav: invalid format in %s", path)
	}

	per := int64(float64(info.ByteRate) * chunk.Seconds())
	per -= per % int64(info.BlockAlign)
	if per <= 0 {
		per = int64(info.BlockAlign)
	}

	if _, err := f.Seek(info.DataOffset, io.SeekStart); err != nil {
		return nil, info, err
	}

	var parts [][]byte
	remaining := info.DataSize
	for remaining > 0 {
		n := per
		if remaining < n {
			n = remaining
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, info, fmt.Errorf("wav: read data: %w", err)
		}
		parts = append(parts, append(WAVHeader(info, len(buf)), buf...))
		remaining -= n
	}
	return parts, info, nil
}
