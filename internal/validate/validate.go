// Package validate holds the pure checks every event passes before it enters
// the store: calendar dates, 24-hour times and bounded text fields.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"eventease/internal/model"
)

// Supported year range, inclusive.
const (
	MinYear = 2000
	MaxYear = 2100
)

// DateLayout and TimeLayout are the fixed-width text forms of Event.Date and
// Event.Time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// separators may never appear in stored text; the data file joins fields with '|'.
const separators = "|\r\n"

var fields = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	must(v.RegisterValidation("present", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	must(v.RegisterValidation("nosep", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), separators)
	}))
	must(v.RegisterValidation("evdate", func(fl validator.FieldLevel) bool {
		return Date(fl.Field().String())
	}))
	must(v.RegisterValidation("evtime", func(fl validator.FieldLevel) bool {
		return Time(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysIn returns the number of days in month of year, or 0 for a bad month.
func DaysIn(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

// IsValidDate reports whether day/month/year is a real date in [MinYear, MaxYear].
func IsValidDate(day, month, year int) bool {
	if year < MinYear || year > MaxYear {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysIn(month, year)
}

// Date reports whether s is a valid YYYY-MM-DD date.
func Date(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	year, ok := digits(s[0:4])
	if !ok {
		return false
	}
	month, ok := digits(s[5:7])
	if !ok {
		return false
	}
	day, ok := digits(s[8:10])
	if !ok {
		return false
	}
	return IsValidDate(day, month, year)
}

// Time reports whether s is a valid HH:MM 24-hour time.
func Time(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hour, ok := digits(s[0:2])
	if !ok {
		return false
	}
	minute, ok := digits(s[3:5])
	if !ok {
		return false
	}
	return hour <= 23 && minute <= 59
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Instant combines date and clock into one point in time in loc.
func Instant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if !Date(date) {
		return time.Time{}, &model.ValidationError{Field: "date", Value: date, Reason: dateReason}
	}
	if !Time(clock) {
		return time.Time{}, &model.ValidationError{Field: "time", Value: clock, Reason: timeReason}
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}

const (
	dateReason = "must be a real date in YYYY-MM-DD form between 2000 and 2100"
	timeReason = "must be HH:MM with hour 00-23 and minute 00-59"
)

// Fields checks a complete set of create fields and returns the first
// violation as a *model.ValidationError.
func Fields(f model.Fields) error {
	err := fields.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate fields: %w", err)
	}
	fe := verrs[0]
	return translate(fe.Field(), fe)
}

// Text checks one free-text field against its bound and the separator rule.
// Empty values pass.
func Text(field, value string, max int) error {
	err := fields.Var(value, fmt.Sprintf("max=%d,nosep", max))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", field, err)
	}
	return translate(field, verrs[0])
}

func translate(field string, fe validator.FieldError) error {
	value := fmt.Sprint(fe.Value())
	var reason string
	switch fe.Tag() {
	case "present":
		reason = "must not be empty"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "nosep":
		reason = "must not contain '|' or line breaks"
	case "evdate":
		reason = dateReason
	case "evtime":
		reason = timeReason
	default:
		reason = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &model.ValidationError{Field: field, Value: value, Reason: reason}
}
