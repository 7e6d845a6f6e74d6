package model

import (
    "fmt"
    "strings"
)

// TimePeriod is one of the two daily seatings.
type TimePeriod string

const (
    Lunch  TimePeriod = "lunch"
    Dinner TimePeriod = "dinner"
)

// ParseTimePeriod normalizes a period name.  The Korean labels used by the
// first version of the web client are accepted as aliases.
func ParseTimePeriod(s string) (TimePeriod, error) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "lunch", "점심":
        return Lunch, nil
    case "dinner", "저녁":
        return Dinner, nil
    }
    return "", fmt.Errorf("unknown time period %q", s)
}

// Order sorts lunch before dinner on the same day.
func (p TimePeriod) Order() int {
    if p == Lunch {
        return 0
    }
    return 1
}

// SlotStatus is the derived state of a slot.
type SlotStatus string

const (
    SlotAvailable SlotStatus = "available"
    SlotBooked    SlotStatus = "booked"
)

// SlotKey identifies one bookable unit: a table on a date for a period.
// Date is a calendar date formatted as YYYY-MM-DD.
type SlotKey struct {
    TableID uint64
    Date    string
    Period  TimePeriod
}

func (k SlotKey) String() string {
    return fmt.Sprintf("%d-%s %s", k.TableID, k.Date, k.Period)
}
