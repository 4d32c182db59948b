package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/isv-promotor/stockreview/internal/review"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var stampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// FormatQuantity truncates v and groups thousands for the printer's locale.
func FormatQuantity(p *message.Printer, v float64) string {
	return p.Sprintf("%d", int64(math.Trunc(v)))
}

// FormatInt prints v without grouping.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ParseStamp reads a data stamp in any of the backend's formats.
func ParseStamp(stamp string) (time.Time, bool) {
	stamp = strings.TrimSpace(stamp)
	if stamp == "" {
		return time.Time{}, false
	}
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LongDate renders t as "02 de janeiro de 2006".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// FormatStamp renders a data stamp as a long date, or "" when unparseable.
func FormatStamp(stamp string) string {
	t, ok := ParseStamp(stamp)
	if !ok {
		return ""
	}
	return LongDate(t)
}

// SortIndicator marks the active sort column.
func SortIndicator(state review.State, key review.SortKey) string {
	if state.Sort != key || key == review.SortNone {
		return ""
	}
	if state.Dir == review.Desc {
		return "▼"
	}
	return "▲"
}
