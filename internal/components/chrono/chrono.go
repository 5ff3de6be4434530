package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the standard library,
// times are reported in Asia/Tokyo since that is where the portal's terms are defined.
type StandardImpl struct {
	location *time.Location
}

// japanStandardTime is used when the host has no zoneinfo for Asia/Tokyo,
// Japan has not observed daylight saving since 1951.
var japanStandardTime = time.FixedZone("JST", 9*60*60)

func NewStandardImpl() (StandardImpl, error) {
	return StandardImpl{location: tokyo(time.LoadLocation)}, nil
}

func tokyo(load func(name string) (*time.Location, error)) *time.Location {
	location, err := load("Asia/Tokyo")
	if err != nil {
		return japanStandardTime
	}
	return location
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always reports the same instant, useful for tests and replaying
// a fetch at a known point in time.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}
