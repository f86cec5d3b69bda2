package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUnparseableTime is returned when no usable time of day could be extracted.
	ErrUnparseableTime = errors.New("could not understand the time")
	// ErrEmptyText is returned when a task has no text.
	ErrEmptyText = errors.New("task text is required")
)

var (
	digitGroups   = regexp.MustCompile(`\d+`)
	meridiemToken = regexp.MustCompile(`(?:^|[\s\d])([ap]m)\b`)
	wordSplitter  = regexp.MustCompile(`[\s\-]+`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"half": 30, "quarter": 15,
}

// ParseTimePhrase extracts a time of day from loosely structured text such as
// "18:30", "6 30", "6pm" or "six thirty pm".
//
// Ambiguous input silently favours the first qualifying token; "quarter past six"
// style phrases are not understood ("past" and "to" carry no meaning here).
func ParseTimePhrase(phrase string) (ClockTime, error) {
	text := normalizePhrase(phrase)
	if text == "" {
		return ClockTime{}, fmt.Errorf("%w: empty phrase", ErrUnparseableTime)
	}

	text, meridiem := splitMeridiem(text)

	var (
		clock ClockTime
		ok    bool
	)
	groups := digitGroups.FindAllString(text, -1)
	switch {
	case strings.Contains(text, ":") || len(groups) >= 2:
		clock, ok = fromDigitPair(groups)
	case len(groups) == 1:
		clock, ok = fromSingleGroup(groups[0])
	default:
		clock, ok = fromWords(text)
	}
	if !ok {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrUnparseableTime, phrase)
	}

	clock = applyMeridiem(clock, meridiem)
	if !clock.Valid() {
		return ClockTime{}, fmt.Errorf("%w: %q out of range", ErrUnparseableTime, phrase)
	}
	return clock, nil
}

func normalizePhrase(phrase string) string {
	text := strings.ToLower(strings.TrimSpace(phrase))
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, "o'clock", "")
	text = strings.ReplaceAll(text, "oclock", "")
	return strings.TrimSpace(text)
}

// splitMeridiem removes the first standalone "am"/"pm" token and returns it.
func splitMeridiem(text string) (string, string) {
	loc := meridiemToken.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	meridiem := text[loc[2]:loc[3]]
	rest := text[:loc[2]] + " " + text[loc[3]:]
	return strings.TrimSpace(rest), meridiem
}

func fromDigitPair(groups []string) (ClockTime, bool) {
	if len(groups) == 0 {
		return ClockTime{}, false
	}
	hour, err := strconv.Atoi(groups[0])
	if err != nil {
		return ClockTime{}, false
	}
	minute := 0
	if len(groups) > 1 {
		if minute, err = strconv.Atoi(groups[1]); err != nil {
			return ClockTime{}, false
		}
	}
	return ClockTime{Hour: hour % 24, Minute: minute % 60}, true
}

// fromSingleGroup treats a lone number as the hour, except a compact "1830"
// which splits into hour and minute.
func fromSingleGroup(group string) (ClockTime, bool) {
	if len(group) == 3 || len(group) == 4 {
		split := len(group) - 2
		hour, _ := strconv.Atoi(group[:split])
		minute, _ := strconv.Atoi(group[split:])
		return ClockTime{Hour: hour, Minute: minute}, true
	}
	hour, err := strconv.Atoi(group)
	if err != nil {
		return ClockTime{}, false
	}
	return ClockTime{Hour: hour}, true
}

func fromWords(text string) (ClockTime, bool) {
	var (
		hour, minute int
		hourSet      bool
	)
	for _, tok := range wordSplitter.Split(text, -1) {
		switch tok {
		case "noon":
			if !hourSet {
				hour, hourSet = 12, true
			}
			continue
		case "midnight":
			if !hourSet {
				hour, hourSet = 0, true
			}
			continue
		}
		val, ok := numberWords[tok]
		if !ok {
			continue
		}
		if !hourSet && val <= 12 {
			hour, hourSet = val, true
			continue
		}
		minute += val
	}
	if !hourSet {
		return ClockTime{}, false
	}
	return ClockTime{Hour: hour, Minute: minute % 60}, true
}

func applyMeridiem(clock ClockTime, meridiem string) ClockTime {
	switch {
	case meridiem == "pm" && clock.Hour < 12:
		clock.Hour += 12
	case meridiem == "am" && clock.Hour == 12:
		clock.Hour = 0
	}
	return clock
}
