// Package schedule parses free-form Spanish schedule strings from department
// pages into structured events. Input like "Lunes y jueves de 12 a 16" or
// "Ma y Vi: 9 a 11" becomes one event per day with normalized times.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Event is a single weekly class meeting.
type Event struct {
	Day          string `json:"dia"`
	StartTime    string `json:"hora_inicio"`
	EndTime      string `json:"hora_fin"`
	ActivityType string `json:"tipo_actividad,omitempty"`
	Room         string `json:"aula,omitempty"`
}

// canonicalDays maps every observed spelling to the canonical lowercase day.
// Unknown spellings cause the candidate event to be dropped.
var canonicalDays = map[string]string{
	"lu": "lunes", "l": "lunes", "lunes": "lunes",
	"ma": "martes", "mar": "martes", "martes": "martes",
	"mi": "miércoles", "mie": "miércoles", "miércoles": "miércoles", "miercoles": "miércoles",
	"ju": "jueves", "jue": "jueves", "jueves": "jueves",
	"vi": "viernes", "vie": "viernes", "viernes": "viernes",
	"sa": "sábado", "sab": "sábado", "sábado": "sábado", "sabado": "sábado",
	"sábados": "sábado", "sabados": "sábado",
	"do": "domingo", "dom": "domingo", "domingo": "domingo", "domingos": "domingo",
}

// NormalizeDay resolves a day token to its canonical form.
// Plural forms fall back to the singular (one trailing "s" stripped).
func NormalizeDay(token string) (string, bool) {
	clean := strings.ToLower(strings.TrimSpace(token))
	if day, ok := canonicalDays[clean]; ok {
		return day, true
	}
	if stripped, found := strings.CutSuffix(clean, "s"); found {
		if day, ok := canonicalDays[stripped]; ok {
			return day, true
		}
	}
	return "", false
}

// NormalizeTime converts "H" or "H:MM" to zero-padded "HH:MM".
// Trailing hour markers ("h", "hs") are stripped. Values that are not
// plain hours are returned unchanged; out-of-range hours are not checked.
func NormalizeTime(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.TrimSuffix(t, "hs")
	t = strings.TrimSuffix(t, "h")
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if strings.Contains(t, ":") {
		parts := strings.SplitN(t, ":", 2)
		if h, err := strconv.Atoi(parts[0]); err == nil {
			return fmt.Sprintf("%02d:%s", h, parts[1])
		}
		return t
	}
	if h, err := strconv.Atoi(t); err == nil {
		return fmt.Sprintf("%02d:00", h)
	}
	return t
}

const (
	hour = `(\d{1,2}(?::\d{2})?)`
	word = `([\p{L}]+)`
)

// Matcher couples a named pattern with its event builder. Matchers are
// tried in the order of the package-level table; the first match wins.
type Matcher struct {
	Name  string
	re    *regexp.Regexp
	build func(groups []string) []Event
}

// Matchers is the ordered pattern table, most specific first.
//
//	two-days-rooms:  "Martes (aula 1108) y viernes (aula 1109) de 14 a 17"
//	double-range:    "Jueves de 9 a 12 y de 13 a 16"
//	two-days:        "Lunes y jueves de 12 a 16"
//	two-days-colon:  "Ma y Vi: 9 a 11", "Lu y Ju: 17:30 a 19:30"
//	day-hour-suffix: "viernes de 9 a 15 h"
//	plural-day:      "Sábados de 9 a 14"
//	single-day:      "Miércoles de 9 a 13"
//	single-day-colon:"Ju: 9 a 13"
var Matchers = []Matcher{
	{
		Name: "two-days-rooms",
		re:   regexp.MustCompile(`(?i)` + word + `\s+\(([^)]+)\)\s+y\s+` + word + `\s+\(([^)]+)\)\s+de\s+` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			// Each room stays with its own day, so a dropped day takes
			// its room with it.
			startNorm := NormalizeTime(g[5])
			endNorm := NormalizeTime(g[6])
			var events []Event
			if day, ok := NormalizeDay(g[1]); ok {
				events = append(events, Event{Day: day, StartTime: startNorm, EndTime: endNorm, Room: roomLabel(g[2])})
			}
			if day, ok := NormalizeDay(g[3]); ok {
				events = append(events, Event{Day: day, StartTime: startNorm, EndTime: endNorm, Room: roomLabel(g[4])})
			}
			return events
		},
	},
	{
		Name: "double-range",
		re:   regexp.MustCompile(`(?i)` + word + `\s+de\s+` + hour + `\s+a\s+` + hour + `\s+y\s+de\s+` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			day, ok := NormalizeDay(g[1])
			if !ok {
				return nil
			}
			return []Event{
				{Day: day, StartTime: NormalizeTime(g[2]), EndTime: NormalizeTime(g[3])},
				{Day: day, StartTime: NormalizeTime(g[4]), EndTime: NormalizeTime(g[5])},
			}
		},
	},
	{
		Name: "two-days",
		re:   regexp.MustCompile(`(?i)` + word + `\s+y\s+` + word + `\s+de\s+` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			return twoDays(g[1], g[2], g[3], g[4])
		},
	},
	{
		Name: "two-days-colon",
		re:   regexp.MustCompile(`(?i)` + word + `\s+y\s+` + word + `:\s*` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			return twoDays(g[1], g[2], g[3], g[4])
		},
	},
	{
		Name: "day-hour-suffix",
		re:   regexp.MustCompile(`(?i)` + word + `\s+de\s+` + hour + `\s+a\s+` + hour + `\s*hs?\b`),
		build: func(g []string) []Event {
			return oneDay(g[1], g[2], g[3])
		},
	},
	{
		Name: "plural-day",
		re:   regexp.MustCompile(`(?i)([\p{L}]+s)\s+de\s+` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			return oneDay(g[1], g[2], g[3])
		},
	},
	{
		Name: "single-day",
		re:   regexp.MustCompile(`(?i)` + word + `\s+de\s+` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			return oneDay(g[1], g[2], g[3])
		},
	},
	{
		Name: "single-day-colon",
		re:   regexp.MustCompile(`(?i)` + word + `:\s*` + hour + `\s+a\s+` + hour),
		build: func(g []string) []Event {
			return oneDay(g[1], g[2], g[3])
		},
	},
}

func oneDay(dayToken, start, end string) []Event {
	day, ok := NormalizeDay(dayToken)
	if !ok {
		return nil
	}
	return []Event{{Day: day, StartTime: NormalizeTime(start), EndTime: NormalizeTime(end)}}
}

// roomLabel strips the "aula" prefix from a parenthesized room note.
func roomLabel(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "aula"))
}

func twoDays(day1, day2, start, end string) []Event {
	startNorm := NormalizeTime(start)
	endNorm := NormalizeTime(end)

	var events []Event
	if day, ok := NormalizeDay(day1); ok {
		events = append(events, Event{Day: day, StartTime: startNorm, EndTime: endNorm})
	}
	if day, ok := NormalizeDay(day2); ok {
		events = append(events, Event{Day: day, StartTime: startNorm, EndTime: endNorm})
	}
	return events
}

// Parse extracts structured events from a schedule string.
// Returns an empty slice when nothing matches; malformed input never errors.
func Parse(text string) []Event {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, m := range Matchers {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		if events := m.build(groups); len(events) > 0 {
			return events
		}
	}
	return nil
}

// ParseWithActivity parses text and stamps every event with the activity type
// (teorica, practica, laboratorio, teorico_practico).
func ParseWithActivity(text, activity string) []Event {
	events := Parse(text)
	for i := range events {
		events[i].ActivityType = activity
	}
	return events
}
