package interpreter

import (
	"strconv"
	"strings"

	"github.com/funvibe/fhirpath/internal/runtime"
)

// parseDateLiteral parses the lexer's raw "@YYYY(-MM(-DD)?)?" lexeme into a
// runtime.Date, tracking how many components were actually given as
// Precision (spec §3.4's partial-date semantics).
func parseDateLiteral(lexeme string) runtime.Date {
	body := strings.TrimPrefix(lexeme, "@")
	parts := strings.Split(body, "-")
	d := runtime.Date{Precision: len(parts)}
	if len(parts) > 0 {
		d.Year, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		d.Month, _ = strconv.Atoi(parts[1])
	} else {
		d.Month = 1
	}
	if len(parts) > 2 {
		d.Day, _ = strconv.Atoi(parts[2])
	} else {
		d.Day = 1
	}
	return d
}

// parseDateTimeLiteral parses "@YYYY(-MM(-DDTHH:mm:ss(.fff)?(Z|+hh:mm)?)?)?".
func parseDateTimeLiteral(lexeme string) runtime.DateTime {
	body := strings.TrimPrefix(lexeme, "@")
	datePart := body
	timePart := ""
	if idx := strings.IndexByte(body, 'T'); idx >= 0 {
		datePart = body[:idx]
		timePart = body[idx+1:]
	}
	date := parseDateLiteral("@" + datePart)
	dt := runtime.DateTime{Year: date.Year, Month: date.Month, Day: date.Day, Precision: date.Precision}
	if timePart == "" {
		return dt
	}
	tzOffset, hasTZ, rest := splitTimezone(timePart)
	t := parseTimeBody(rest)
	dt.Hour, dt.Minute, dt.Second, dt.Millisecond = t.Hour, t.Minute, t.Second, t.Millisecond
	dt.HasTimezone = hasTZ
	dt.TZOffsetMinutes = tzOffset
	dt.Precision = 3 + t.Precision // date components (3) plus time components
	return dt
}

// parseTimeLiteral parses "@Thh(:mm(:ss(.fff)?)?)?".
func parseTimeLiteral(lexeme string) runtime.Time {
	body := strings.TrimPrefix(lexeme, "@T")
	_, _, rest := splitTimezone(body)
	return parseTimeBody(rest)
}

func parseTimeBody(s string) runtime.Time {
	segs := strings.Split(s, ":")
	t := runtime.Time{Precision: len(segs)}
	if len(segs) > 0 && segs[0] != "" {
		t.Hour, _ = strconv.Atoi(segs[0])
	}
	if len(segs) > 1 {
		t.Minute, _ = strconv.Atoi(segs[1])
	}
	if len(segs) > 2 {
		secPart := segs[2]
		if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
			t.Second, _ = strconv.Atoi(secPart[:dot])
			ms := secPart[dot+1:]
			for len(ms) < 3 {
				ms += "0"
			}
			t.Millisecond, _ = strconv.Atoi(ms[:3])
		} else {
			t.Second, _ = strconv.Atoi(secPart)
		}
	}
	return t
}

// splitTimezone strips a trailing "Z" or "+hh:mm"/"-hh:mm" timezone
// designator, returning its offset in minutes, whether one was present, and
// the remaining time-of-day text.
func splitTimezone(s string) (offsetMinutes int, has bool, rest string) {
	if strings.HasSuffix(s, "Z") {
		return 0, true, strings.TrimSuffix(s, "Z")
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '+' || s[i] == '-' {
			// Only a +hh:mm/-hh:mm suffix at the end counts; a leading '-'
			// can't occur here since dates/times never start with a sign.
			sign := 1
			if s[i] == '-' {
				sign = -1
			}
			tz := s[i+1:]
			parts := strings.Split(tz, ":")
			if len(parts) != 2 {
				continue
			}
			hh, errH := strconv.Atoi(parts[0])
			mm, errM := strconv.Atoi(parts[1])
			if errH != nil || errM != nil {
				continue
			}
			return sign * (hh*60 + mm), true, s[:i]
		}
	}
	return 0, false, s
}
