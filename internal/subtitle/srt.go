package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var timeRegex = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}[,\.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,\.]\d{3})`)

// Parse reads SRT content. Multi-line cue text is joined with "\n".
func Parse(r io.Reader) (Track, error) {
	var track Track
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	// SRT format:
	// 1
	// 00:00:00,000 --> 00:00:02,500
	// Text here
	//
	// 2
	// ...

	var current *Cue
	var lines []string
	lineNum := 0

	flush := func() {
		if current != nil {
			current.Text = strings.Join(lines, "\n")
			if !current.IsEmpty() {
				track = append(track, *current)
			}
		}
		current = nil
		lines = nil
		lineNum = 0
	}

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if line == "" {
			flush()
			continue
		}

		lineNum++

		switch lineNum {
		case 1:
			index, err := strconv.Atoi(line)
			if err != nil {
				return nil, fmt.Errorf("invalid cue index %q", line)
			}
			current = &Cue{Index: index}
		case 2:
			matches := timeRegex.FindStringSubmatch(line)
			if len(matches) != 3 {
				return nil, fmt.Errorf("cue %d: invalid timing line %q", current.Index, line)
			}
			start, err := ParseTimestamp(matches[1])
			if err != nil {
				return nil, err
			}
			end, err := ParseTimestamp(matches[2])
			if err != nil {
				return nil, err
			}
			current.StartTime = start
			current.EndTime = end
		default:
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return track, nil
}

// ParseFile parses an SRT file from the given path.
func ParseFile(path string) (Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Format renders a track as SRT. Every cue, including the last, is
// terminated by a blank line.
func Format(track Track) string {
	var builder strings.Builder
	for _, cue := range track {
		builder.WriteString(strconv.Itoa(cue.Index))
		builder.WriteString("\n")

		builder.WriteString(FormatTimestamp(cue.StartTime))
		builder.WriteString(" --> ")
		builder.WriteString(FormatTimestamp(cue.EndTime))
		builder.WriteString("\n")

		builder.WriteString(cue.Text)
		builder.WriteString("\n\n")
	}
	return builder.String()
}

// WriteFile writes a track to an SRT file, creating the parent directory.
func WriteFile(path string, track Track) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create subtitle directory: %w", err)
	}
	return os.WriteFile(path, []byte(Format(track)), 0644)
}
