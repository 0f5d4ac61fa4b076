package core

import "time"

// Advance returns the due date one frequency unit after d.
//
// Monthly keeps the day-of-month, rolling December into January of the next
// year; yearly keeps month and day. When the target month is shorter than
// the current day-of-month (Jan 31 + 1 month, Feb 29 + 1 year) the result
// clamps to the last valid day of the target month.
func (f Frequency) Advance(d Date) (Date, error) {
	switch f {
	case Daily:
		return d.AddDays(1), nil
	case Weekly:
		return d.AddDays(7), nil
	case Monthly:
		year, month := d.Year(), time.Month(d.Month())+1
		if month > time.December {
			year, month = year+1, time.January
		}
		day := d.Day()
		if last := lastDayOfMonth(year, month); day > last {
			day = last
		}
		return NewDate(year, int(month), day), nil
	case Yearly:
		year := d.Year() + 1
		day := d.Day()
		if last := lastDayOfMonth(year, time.Month(d.Month())); day > last {
			day = last
		}
		return NewDate(year, d.Month(), day), nil
	default:
		return Date{}, ErrInvalidFrequency
	}
}
