package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"attendance-api/models"

	"github.com/PuerkitoBio/goquery"
)

// ErrTableNotFound is returned when an HTML document contains no recognizable
// schedule table.
var ErrTableNotFound = errors.New("could not find schedule table")

type ParserService struct{}

func NewParserService() *ParserService {
	return &ParserService{}
}

var (
	// 2-4 letters, optional space, 4 digits: "CSC4303", "ECO 1200"
	courseCodeRe = regexp.MustCompile(`^[A-Za-z]{2,4} ?\d{4}$`)
	timeRangeRe  = regexp.MustCompile(`(?i)^\s*(\d{1,2}(?:\.\d{1,2})?)\s*-\s*(\d{1,2}(?:\.\d{1,2})?)\s*(AM|PM)\s*$`)
	meridiemRe   = regexp.MustCompile(`(?i)AM|PM`)
	sectionRe    = regexp.MustCompile(`^\d+$`)
	spacesRe     = regexp.MustCompile(`\s+`)
	tabsRe       = regexp.MustCompile(`\t+`)
)

// courseBlock accumulates one course+section and its schedule rows before
// they are expanded into per-day entries.
type courseBlock struct {
	code       string
	section    string
	title      string
	creditHour int
	rows       []meetingRow
}

// meetingRow is one raw schedule line of a block: still one row per day
// token, not yet per weekday.
type meetingRow struct {
	day      string
	timeSpan string
	venue    string
	lecturer string
}

// ExtractFromHTML locates the schedule table in an HTML document and flattens
// it into per-day schedule entries. The schedule table is recognized by its
// header text containing both "Code" and "Sect"; the registration system puts
// a nested table with the weekly meetings into the fifth cell of each course
// row.
func (s *ParserService) ExtractFromHTML(html string) ([]models.ScheduleEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := t.Text()
		if strings.Contains(text, "Code") && strings.Contains(text, "Sect") {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return nil, ErrTableNotFound
	}

	var entries []models.ScheduleEntry

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		// The first two rows are headers.
		if i < 2 {
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < 5 {
			return
		}

		code := cleanText(cells.Eq(0).Text())
		if !courseCodeRe.MatchString(code) {
			// Nested rows and page chrome end up here as well; the code
			// shape is the row gate.
			return
		}

		block := courseBlock{
			code:       code,
			section:    cleanText(cells.Eq(1).Text()),
			title:      cleanText(cells.Eq(2).Text()),
			creditHour: parseCreditHour(cells.Eq(3).Text()),
		}

		cells.Eq(4).Find("table").First().Find("tr").Each(func(_ int, sched *goquery.Selection) {
			sc := sched.Find("td")
			if sc.Length() < 4 {
				return
			}
			block.rows = append(block.rows, meetingRow{
				day:      cleanText(sc.Eq(0).Text()),
				timeSpan: cleanText(sc.Eq(1).Text()),
				venue:    cleanText(sc.Eq(2).Text()),
				lecturer: cleanText(sc.Eq(3).Text()),
			})
		})

		entries = append(entries, expandBlock(block)...)
	})

	return entries, nil
}

// ExtractFromText reconstructs schedule entries from a copy-pasted
// tab-delimited block. Lines alternate between course headers
// ("CODE<tab>SECTION<tab>TITLE...<tab>CREDIT") and schedule rows
// ("DAY<tab>...<tab>TIME<tab>VENUE<tab>LECTURER"); rows are buffered onto
// the current block and expanded when the next header arrives or the input
// ends. There is no structural failure mode: unrecognized input simply
// yields no entries.
func (s *ParserService) ExtractFromText(text string) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	var current *courseBlock

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isNoiseLine(line) {
			continue
		}

		fields := tabsRe.Split(line, -1)

		if isCourseHeader(fields) {
			if current != nil {
				entries = append(entries, expandBlock(*current)...)
			}
			current = &courseBlock{
				code:       cleanText(fields[0]),
				section:    strings.TrimSpace(fields[1]),
				title:      cleanText(strings.Join(fields[2:len(fields)-1], " ")),
				creditHour: parseCreditHour(fields[len(fields)-1]),
			}
			continue
		}

		if current == nil {
			continue
		}

		if row, ok := parseScheduleLine(fields); ok {
			current.rows = append(current.rows, row)
		}
	}

	// Flush the block still open at end of input; without this the last
	// course of every paste is lost.
	if current != nil {
		entries = append(entries, expandBlock(*current)...)
	}

	return entries
}

// Normalize deduplicates a flat entry list and derives the venue set.
// The key is (compact code, section, day, start time); the first occurrence
// wins, so running it twice is a no-op.
func (s *ParserService) Normalize(entries []models.ScheduleEntry) models.ParseResult {
	seen := make(map[string]bool, len(entries))
	venueSet := make(map[string]bool)
	result := models.ParseResult{
		Entries: make([]models.ScheduleEntry, 0, len(entries)),
		Venues:  []string{},
	}

	for _, e := range entries {
		key := fmt.Sprintf("%s|%s|%s|%s", e.CompactCode(), e.Section, e.Day, e.StartTime)
		if seen[key] {
			continue
		}
		seen[key] = true
		result.Entries = append(result.Entries, e)
		if e.Venue != "" {
			venueSet[e.Venue] = true
		}
	}

	for venue := range venueSet {
		result.Venues = append(result.Venues, venue)
	}
	sort.Strings(result.Venues)

	return result
}

// expandBlock turns one buffered course block into per-day entries:
// backfills missing lecturers from the last nonempty one seen so far,
// expands multi-day tokens, and drops rows whose time never parsed.
func expandBlock(block courseBlock) []models.ScheduleEntry {
	var entries []models.ScheduleEntry
	primaryLecturer := ""

	for _, row := range block.rows {
		lecturer := strings.TrimSpace(row.lecturer)
		if lecturer == "" || lecturer == "-" {
			lecturer = primaryLecturer
		} else {
			primaryLecturer = lecturer
		}

		start, end, ok := normalizeTimeRange(row.timeSpan)
		if !ok {
			continue
		}

		days := expandDays(row.day)
		if len(days) == 0 {
			continue
		}

		venue := strings.TrimSpace(row.venue)
		if venue == "-" {
			venue = ""
		}

		for _, day := range days {
			entries = append(entries, models.ScheduleEntry{
				Code:       block.code,
				Section:    block.section,
				Title:      block.title,
				CreditHour: block.creditHour,
				Day:        day,
				StartTime:  start,
				EndTime:    end,
				Venue:      venue,
				Lecturer:   lecturer,
			})
		}
	}

	return entries
}

// normalizeTimeRange parses a token like "8.30 - 9.50 AM" into a 24-hour
// start/end pair. The single trailing AM/PM marker belongs to the end time;
// if the marker is PM but the start reads numerically later than the end
// ("11.00 - 1.30 PM"), the start can only be AM. A same-day class never
// legitimately runs start-hour > end-hour inside one meridiem, which is what
// makes the inference safe.
func normalizeTimeRange(token string) (start, end string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" || token == "-" {
		return "", "", false
	}

	m := timeRangeRe.FindStringSubmatch(token)
	if m == nil {
		return "", "", false
	}

	startRaw, endRaw := m[1], m[2]
	period := strings.ToUpper(m[3])

	startPeriod := period
	if period == "PM" && clockMinutes(startRaw) > clockMinutes(endRaw) {
		startPeriod = "AM"
	}

	return to24Hour(startRaw, startPeriod), to24Hour(endRaw, period), true
}

// clockMinutes reads "11.20" as 11:20 and returns minutes since midnight,
// ignoring meridiem. The dot is a separator, not a decimal point.
func clockMinutes(raw string) int {
	hour, minute := splitClock(raw)
	return hour*60 + minute
}

func splitClock(raw string) (hour, minute int) {
	parts := strings.SplitN(raw, ".", 2)
	hour, _ = strconv.Atoi(parts[0])
	if len(parts) == 2 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}

func to24Hour(raw, period string) string {
	hour, minute := splitClock(raw)
	if period == "PM" && hour != 12 {
		hour += 12
	}
	if period == "AM" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// expandDays maps a day token onto canonical weekday names. Multi-day
// tokens ("M-W", "T-TH", "M-W-F") expand to several days. Unknown tokens
// pass through uppercased rather than being rejected; rows carrying one are
// discarded wherever they are matched against a real calendar day.
func expandDays(token string) []string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "M-W":
		return []string{"Monday", "Wednesday"}
	case "T-TH":
		return []string{"Tuesday", "Thursday"}
	case "M-W-F":
		return []string{"Monday", "Wednesday", "Friday"}
	case "MON", "M":
		return []string{"Monday"}
	case "TUE", "T":
		return []string{"Tuesday"}
	case "WED", "W":
		return []string{"Wednesday"}
	case "THU", "THUR", "TH":
		return []string{"Thursday"}
	case "FRI", "F":
		return []string{"Friday"}
	case "SAT":
		return []string{"Saturday"}
	case "SUN":
		return []string{"Sunday"}
	default:
		return []string{strings.ToUpper(strings.TrimSpace(token))}
	}
}

var dayTokens = map[string]bool{
	"M": true, "MON": true,
	"T": true, "TUE": true,
	"W": true, "WED": true,
	"TH": true, "THU": true, "THUR": true,
	"F": true, "FRI": true,
	"SAT": true, "SUN": true,
	"M-W": true, "T-TH": true, "M-W-F": true,
}

// helpers for the text scanner

func isNoiseLine(line string) bool {
	if strings.HasPrefix(line, "Code") || strings.HasPrefix(line, "Day") {
		return true
	}
	return strings.Contains(line, "PREV") ||
		strings.Contains(line, "NEXT") ||
		strings.Contains(line, "INTERNATIONAL")
}

func isCourseHeader(fields []string) bool {
	if len(fields) < 4 {
		return false
	}
	return courseCodeRe.MatchString(cleanText(fields[0])) &&
		sectionRe.MatchString(strings.TrimSpace(fields[1]))
}

// parseScheduleLine recognizes a schedule row: the first field is a day
// token and some later field carries the AM/PM time range. Venue and
// lecturer are the two fields after the time, when present.
func parseScheduleLine(fields []string) (meetingRow, bool) {
	if len(fields) < 2 {
		return meetingRow{}, false
	}
	if !dayTokens[strings.ToUpper(strings.TrimSpace(fields[0]))] {
		return meetingRow{}, false
	}

	timeIdx := -1
	for i := 1; i < len(fields); i++ {
		if meridiemRe.MatchString(fields[i]) {
			timeIdx = i
			break
		}
	}
	if timeIdx == -1 {
		return meetingRow{}, false
	}

	row := meetingRow{
		day:      strings.TrimSpace(fields[0]),
		timeSpan: strings.TrimSpace(fields[timeIdx]),
	}
	if timeIdx+1 < len(fields) {
		row.venue = strings.TrimSpace(fields[timeIdx+1])
	}
	if timeIdx+2 < len(fields) {
		row.lecturer = strings.TrimSpace(fields[timeIdx+2])
	}

	return row, true
}

func parseCreditHour(raw string) int {
	hours, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || hours <= 0 {
		return 3
	}
	return hours
}

// cleanText trims and collapses runs of whitespace to single spaces.
func cleanText(value string) string {
	return spacesRe.ReplaceAllString(strings.TrimSpace(value), " ")
}
