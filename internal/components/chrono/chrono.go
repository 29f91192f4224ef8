package chrono

import "time"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the location the implementation was created with.
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime creates a StandardTime for the IANA location name, an empty name means UTC.
func NewStandardTime(location string) (StandardTime, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return StandardTime{}, err
	}
	return StandardTime{location: loc}, nil
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.Location())
}

func (s StandardTime) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// FixedTime always returns the same instant, it is used by tests.
type FixedTime time.Time

func (f FixedTime) Now() time.Time {
	return time.Time(f)
}

func (f FixedTime) Location() *time.Location {
	return time.Time(f).Location()
}
