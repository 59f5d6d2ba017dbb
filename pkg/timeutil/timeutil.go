// Package timeutil provides time helpers for the São Paulo timezone (UTC-3).
// Views and exports show dates in the Brazilian dd/mm/yyyy format.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// SaoPauloTZ is the São Paulo timezone (UTC-3).
// Brazil abolished daylight saving time in 2019, so the offset is fixed.
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Common date/time layouts.
const (
	// LayoutDate is the Brazilian date format (DD/MM/YYYY).
	LayoutDate = "02/01/2006"
	// LayoutDateTime is the Brazilian datetime format.
	LayoutDateTime = "02/01/2006 15:04"
	// LayoutShortDate is the chart axis format (DD/MM).
	LayoutShortDate = "02/01"
	// LayoutISODate is the ISO date format (YYYY-MM-DD).
	LayoutISODate = "2006-01-02"
)

// Now returns the current time in São Paulo.
func Now() time.Time {
	return time.Now().In(SaoPauloTZ)
}

// ToLocal converts a time to São Paulo.
func ToLocal(t time.Time) time.Time {
	return t.In(SaoPauloTZ)
}

// Date creates midnight of the given day in São Paulo.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SaoPauloTZ)
}

// StartOfDay returns 00:00:00 of t's day in São Paulo.
func StartOfDay(t time.Time) time.Time {
	l := ToLocal(t)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, SaoPauloTZ)
}

// IsSameDay checks if two times fall on the same São Paulo day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToLocal(t1), ToLocal(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysSince returns whole days elapsed since t, never negative.
func DaysSince(t time.Time) int {
	d := int(StartOfDay(Now()).Sub(StartOfDay(t)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// FormatDate formats t as DD/MM/YYYY. The zero time yields "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return ToLocal(t).Format(LayoutDate)
}

// FormatDateTime formats t as DD/MM/YYYY HH:MM.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return ToLocal(t).Format(LayoutDateTime)
}

// FormatShortDate formats t as DD/MM.
func FormatShortDate(t time.Time) string {
	return ToLocal(t).Format(LayoutShortDate)
}

// ParseDate accepts DD/MM/YYYY or YYYY-MM-DD and returns midnight in São Paulo.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layout := LayoutDate
	if strings.Contains(value, "-") {
		layout = LayoutISODate
	}
	t, err := time.ParseInLocation(layout, value, SaoPauloTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida %q: use DD/MM/AAAA", value)
	}
	return t, nil
}

// FormatRelative returns a short Portuguese description such as "há 3 dias".
func FormatRelative(t time.Time) string {
	d := Now().Sub(t)
	if d < 0 {
		return "agora"
	}
	switch {
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		return fmt.Sprintf("há %d min", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("há %d h", int(d.Hours()))
	}
	days := DaysSince(t)
	switch {
	case days <= 1:
		return "ontem"
	case days < 30:
		return fmt.Sprintf("há %d dias", days)
	case days < 365:
		return fmt.Sprintf("há %d meses", days/30)
	default:
		return fmt.Sprintf("há %d anos", days/365)
	}
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// MonthName returns the Portuguese month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// FormatLong formats t as "10 de março de 2024".
func FormatLong(t time.Time) string {
	l := ToLocal(t)
	return fmt.Sprintf("%d de %s de %d", l.Day(), MonthName(l.Month()), l.Year())
}
