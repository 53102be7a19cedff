// Package position reads recorded position streams and replays them into a
// tracker.
//
// A stream is line oriented. Each line is one of:
//
//	{"lat": 40.7794, "lon": -73.9632, "ts": "2025-12-07T10:00:00Z"}
//	40.7794,-73.9632[,2025-12-07T10:00:00Z]
//	!enter <museum id>
//	!exit
//	!art <title>[ | <artist>[ | <year>]]
//
// Blank lines and lines starting with '#' are skipped.
package position

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
)

var ErrMalformedLine = goerr.New("malformed position line")

type Kind int

const (
	KindFix Kind = iota
	KindEnter
	KindExit
	KindArtwork
)

func (k Kind) String() string {
	switch k {
	case KindFix:
		return "fix"
	case KindEnter:
		return "enter"
	case KindExit:
		return "exit"
	case KindArtwork:
		return "artwork"
	default:
		return "unknown"
	}
}

// Event is one decoded line.
type Event struct {
	Kind     Kind
	Line     int
	Fix      model.Fix
	MuseumID string
	Artwork  *model.Artwork
}

// Reader decodes events line by line.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	now     func() time.Time
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		now:     time.Now,
	}
}

// Next returns the next event. It returns io.EOF at the end of input and an
// error wrapping ErrMalformedLine for a line that cannot be decoded; reading
// can continue after a malformed line.
func (x *Reader) Next() (*Event, error) {
	for x.scanner.Scan() {
		x.line++
		text := strings.TrimSpace(x.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		ev, err := x.parse(text)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse line", goerr.V("line", x.line))
		}
		ev.Line = x.line
		return ev, nil
	}

	if err := x.scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read position stream")
	}
	return nil, io.EOF
}

func (x *Reader) parse(text string) (*Event, error) {
	switch {
	case strings.HasPrefix(text, "!"):
		return parseCommand(text, x.now)
	case strings.HasPrefix(text, "{"):
		return parseJSON(text, x.now)
	default:
		return parseCSV(text, x.now)
	}
}

type jsonFix struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TS        string   `json:"ts"`
	Timestamp string   `json:"timestamp"`
}

func parseJSON(text string, now func() time.Time) (*Event, error) {
	var raw jsonFix
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, goerr.Wrap(ErrMalformedLine, "invalid JSON", goerr.V("error", err.Error()))
	}

	lat := firstNonNil(raw.Lat, raw.Latitude)
	lon := firstNonNil(raw.Lon, raw.Longitude)
	if lat == nil || lon == nil {
		return nil, goerr.Wrap(ErrMalformedLine, "latitude and longitude are required")
	}

	ts, err := parseTimestamp(firstNonEmpty(raw.TS, raw.Timestamp), now)
	if err != nil {
		return nil, err
	}

	return &Event{
		Kind: KindFix,
		Fix:  model.Fix{Latitude: *lat, Longitude: *lon, Timestamp: ts},
	}, nil
}

func parseCSV(text string, now func() time.Time) (*Event, error) {
	fields := strings.Split(text, ",")
	if len(fields) < 2 || len(fields) > 3 {
		return nil, goerr.Wrap(ErrMalformedLine, "expected lat,lon[,timestamp]", goerr.V("fields", len(fields)))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return nil, goerr.Wrap(ErrMalformedLine, "invalid latitude", goerr.V("value", fields[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return nil, goerr.Wrap(ErrMalformedLine, "invalid longitude", goerr.V("value", fields[1]))
	}

	var rawTS string
	if len(fields) == 3 {
		rawTS = strings.TrimSpace(fields[2])
	}
	ts, err := parseTimestamp(rawTS, now)
	if err != nil {
		return nil, err
	}

	return &Event{
		Kind: KindFix,
		Fix:  model.Fix{Latitude: lat, Longitude: lon, Timestamp: ts},
	}, nil
}

func parseCommand(text string, now func() time.Time) (*Event, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(text, "!"), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "exit":
		return &Event{Kind: KindExit}, nil

	case "enter":
		if arg == "" {
			return nil, goerr.Wrap(ErrMalformedLine, "museum id is required for !enter")
		}
		return &Event{Kind: KindEnter, MuseumID: arg}, nil

	case "art":
		parts := strings.Split(arg, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" {
			return nil, goerr.Wrap(ErrMalformedLine, "title is required for !art")
		}
		a := &model.Artwork{
			ID:        model.NewArtworkID(),
			Title:     parts[0],
			Artist:    "Unknown",
			ScannedAt: now(),
		}
		if len(parts) > 1 && parts[1] != "" {
			a.Artist = parts[1]
		}
		if len(parts) > 2 {
			a.Year = parts[2]
		}
		return &Event{Kind: KindArtwork, Artwork: a}, nil

	default:
		return nil, goerr.Wrap(ErrMalformedLine, "unknown command", goerr.V("command", name))
	}
}

func parseTimestamp(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, goerr.Wrap(ErrMalformedLine, "invalid timestamp", goerr.V("value", raw))
	}
	return ts, nil
}

func firstNonNil(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
