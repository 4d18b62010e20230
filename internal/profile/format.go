package profile

import (
	"fmt"
	"strings"
	"time"
)

// FormatAddress renders "number street, city, state, country postcode".
func FormatAddress(p Profile) string {
	l := p.Location
	return fmt.Sprintf("%d %s, %s, %s, %s %s", l.Street.Number, l.Street.Name, l.City, l.State, l.Country, l.Postcode)
}

// FormatDate renders an ISO-8601 timestamp as "January 2, 2006".
// Unparseable input is returned unchanged.
func FormatDate(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Format("January 2, 2006")
}

// FormatPhone renders numbers with at least ten digits as "(xxx) xxx-xxxx"
// using the first ten digits; shorter numbers are returned unchanged.
func FormatPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 10 {
		return phone
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:10])
}

// FormatName renders "Title First Last".
func FormatName(p Profile) string {
	if p.Name.Title == "" {
		return p.FullName()
	}
	return p.Name.Title + " " + p.FullName()
}
