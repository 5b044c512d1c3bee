package models

import "strings"

// ScheduleEntry is one concrete weekly meeting of a course section.
// A row that meets on several days is expanded into one entry per day
// before it ever leaves the parser.
type ScheduleEntry struct {
	Code       string `json:"code"`
	Section    string `json:"section"`
	Title      string `json:"title"`
	CreditHour int    `json:"creditHour"`
	Day        string `json:"day"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Venue      string `json:"venue"`
	Lecturer   string `json:"lecturer"`
}

// CompactCode returns the course code without spaces ("CSC 4303" -> "CSC4303").
func (e ScheduleEntry) CompactCode() string {
	return strings.ReplaceAll(e.Code, " ", "")
}

// ParseResult is the deduplicated output of one pipeline run.
type ParseResult struct {
	Entries []ScheduleEntry `json:"entries"`
	Venues  []string        `json:"venues"`
}
