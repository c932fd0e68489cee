package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Lyrics is the structured lyrics payload stored on a song: free-form
// metadata tags plus timestamped lines ordered by start time.
type Lyrics struct {
	Metadata map[string]string `json:"metadata"`
	Lines    []LyricLine       `json:"lyrics"`
}

// LyricLine is one timed lyric event. Duration is the gap to the next line's
// start; the final line has duration 0.
type LyricLine struct {
	Start    float64 `json:"timestamp"` // seconds
	Text     string  `json:"text"`
	Duration float64 `json:"duration"` // seconds
}

var (
	metaLineRe  = regexp.MustCompile(`^\[(\w+):([^\]]+)\]`)
	timestampRe = regexp.MustCompile(`\[(\d{2}):(\d{2}\.\d{2})\]`)
)

// ParseLyrics parses the vendor's line-oriented bracket format. Metadata
// lines look like [ar:Artist]; lyric lines carry one or more [MM:SS.ss]
// stamps followed by text. A line with several stamps yields one event per
// stamp. Lines with no text after stamp removal are dropped. A blank or
// unparseable blob yields the zero value.
func ParseLyrics(raw string) Lyrics {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Lyrics{}
	}

	metadata := make(map[string]string)
	var lines []LyricLine

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		stamps := timestampRe.FindAllStringSubmatch(line, -1)
		if len(stamps) == 0 {
			if m := metaLineRe.FindStringSubmatch(line); m != nil {
				metadata[m[1]] = strings.TrimSpace(m[2])
			}
			continue
		}

		text := strings.TrimSpace(timestampRe.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}

		for _, m := range stamps {
			minutes, _ := strconv.Atoi(m[1])
			seconds, _ := strconv.ParseFloat(m[2], 64)
			lines = append(lines, LyricLine{
				Start: float64(minutes)*60 + seconds,
				Text:  text,
			})
		}
	}

	if len(metadata) == 0 && len(lines) == 0 {
		return Lyrics{}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Start < lines[j].Start })
	for i := range lines {
		if i+1 < len(lines) {
			lines[i].Duration = lines[i+1].Start - lines[i].Start
		}
	}

	return Lyrics{Metadata: metadata, Lines: lines}
}

// IsZero reports whether the payload carries nothing worth storing.
func (l Lyrics) IsZero() bool {
	return len(l.Metadata) == 0 && len(l.Lines) == 0
}

// Value serializes the payload as JSON for storage; an empty payload stores
// as NULL.
func (l Lyrics) Value() (driver.Value, error) {
	if l.IsZero() {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan deserializes the stored JSON payload.
func (l *Lyrics) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported lyrics column type %T", value)
	}

	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, l)
}
