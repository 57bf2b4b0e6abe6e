// FILE: logbridge/src/internal/core/record.go
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Location identifies where a record was emitted
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Record is a single structured log record. It is fully formed by its
// constructor and has no mutators; copies are independent.
type Record struct {
	time     time.Time
	level    Level
	target   string
	message  string
	location Location
	located  bool
}

// NewRecord creates a record without source location
func NewRecord(level Level, target, message string) Record {
	return Record{
		time:    time.Now(),
		level:   level,
		target:  target,
		message: message,
	}
}

// NewRecordAt creates a record with a source location. An empty file
// leaves the location absent.
func NewRecordAt(level Level, target, message, file string, line int) Record {
	r := NewRecord(level, target, message)
	if file != "" {
		r.location = Location{File: file, Line: line}
		r.located = true
	}
	return r
}

func (r Record) Time() time.Time { return r.time }
func (r Record) Level() Level    { return r.level }
func (r Record) Target() string  { return r.target }
func (r Record) Message() string { return r.message }
func (r Record) IsZero() bool    { return r.time.IsZero() && r.message == "" }

// Location returns the source location and whether one was recorded
func (r Record) Location() (Location, bool) {
	return r.location, r.located
}

// wireRecord is the JSON form used by network producers and formatters
type wireRecord struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Target  string    `json:"target"`
	Message string    `json:"message"`
	File    string    `json:"file,omitempty"`
	Line    int       `json:"line,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		Time:    r.time,
		Level:   r.level,
		Target:  r.target,
		Message: r.message,
	}
	if r.located {
		w.File = r.location.File
		w.Line = r.location.Line
	}
	return json.Marshal(w)
}

// DecodeRecord parses a JSON record. Missing time is stamped with now,
// missing level defaults to INFO and missing target to defaultTarget.
func DecodeRecord(data []byte, defaultTarget string) (Record, error) {
	var w struct {
		Time    time.Time `json:"time"`
		Level   *Level    `json:"level"`
		Target  string    `json:"target"`
		Message string    `json:"message"`
		File    string    `json:"file"`
		Line    int       `json:"line"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("invalid record JSON: %w", err)
	}
	if w.Message == "" {
		return Record{}, fmt.Errorf("record has empty message")
	}

	level := LevelInfo
	if w.Level != nil {
		level = *w.Level
	}
	target := w.Target
	if target == "" {
		target = defaultTarget
	}

	r := NewRecordAt(level, target, w.Message, w.File, w.Line)
	if !w.Time.IsZero() {
		r.time = w.Time
	}
	return r, nil
}
