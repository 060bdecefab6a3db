package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Entry is one parsed JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	Fields    map[string]any
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects are
// returned as a message-only entry with ok=false.
func Parse(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: line}, false
	}
	e := Entry{Fields: map[string]any{}}
	for key, value := range raw {
		s, isString := value.(string)
		switch {
		case key == zerolog.TimestampFieldName && isString:
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				e.Time = t
			}
		case key == zerolog.LevelFieldName && isString:
			e.Level = s
		case key == zerolog.MessageFieldName && isString:
			e.Message = s
		case key == zerolog.ErrorFieldName && isString:
			e.Error = s
		case key == "component" && isString:
			e.Component = s
		default:
			e.Fields[key] = value
		}
	}
	return e, true
}

// Filter keeps entries at or above minLevel and, when component is set,
// from that component only. Unparseable levels always pass.
func Filter(entries []Entry, minLevel zerolog.Level, component string) []Entry {
	component = strings.TrimSpace(component)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if component != "" && e.Component != component {
			continue
		}
		if lvl, err := zerolog.ParseLevel(e.Level); err == nil && e.Level != "" && lvl < minLevel {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ReadEntries reads and parses the last maxLines of the log at path.
func ReadEntries(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, _ := Parse(line)
		entries = append(entries, e)
	}
	return entries, nil
}

// Format renders e as a single plain line:
//
//	15:04:05 INF [realtime] socket dropped error="EOF" attempt=2
func Format(e Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(levelTag(e.Level))
		b.WriteByte(' ')
	}
	if e.Component != "" {
		b.WriteString("[" + e.Component + "] ")
	}
	b.WriteString(e.Message)
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	b.WriteString(formatFields(e.Fields))
	return b.String()
}

var (
	timeColor      = color.New(color.FgHiBlack)
	componentColor = color.New(color.FgBlue)
	errorColor     = color.New(color.FgRed)
	levelColors    = map[string]*color.Color{
		"trace": color.New(color.FgHiBlack),
		"debug": color.New(color.FgCyan),
		"info":  color.New(color.FgGreen, color.Bold),
		"warn":  color.New(color.FgYellow, color.Bold),
		"error": color.New(color.FgRed, color.Bold),
		"fatal": color.New(color.FgRed, color.Bold),
		"panic": color.New(color.FgRed, color.Bold),
	}
)

// Colorize renders e like Format with terminal colors. Colors are dropped
// automatically when output is not a terminal.
func Colorize(e Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(timeColor.Sprint(e.Time.Local().Format("15:04:05")))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		tag := levelTag(e.Level)
		if c, ok := levelColors[strings.ToLower(e.Level)]; ok {
			tag = c.Sprint(tag)
		}
		b.WriteString(tag)
		b.WriteByte(' ')
	}
	if e.Component != "" {
		b.WriteString(componentColor.Sprint("["+e.Component+"]") + " ")
	}
	b.WriteString(e.Message)
	if e.Error != "" {
		b.WriteString(" " + errorColor.Sprintf("error=%q", e.Error))
	}
	b.WriteString(formatFields(e.Fields))
	return b.String()
}

func levelTag(level string) string {
	switch strings.ToLower(level) {
	case "trace":
		return "TRC"
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	case "fatal":
		return "FTL"
	case "panic":
		return "PNC"
	default:
		return strings.ToUpper(level)
	}
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		switch v := fields[k].(type) {
		case string:
			fmt.Fprintf(&b, " %s=%q", k, v)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				fmt.Fprintf(&b, " %s=%v", k, v)
				continue
			}
			fmt.Fprintf(&b, " %s=%s", k, raw)
		}
	}
	return b.String()
}
