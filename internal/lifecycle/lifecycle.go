// Package lifecycle holds the closed status and location sets a transaction
// moves through, and the move table that connects them.
package lifecycle

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

var (
	ErrUnknownStatus   = errors.New("unknown transaction status")
	ErrUnknownLocation = errors.New("unknown transaction location")
	ErrNoTransition    = errors.New("no move transition for current state")
)

// Status is the processing status of a single transaction.
type Status uint8

const (
	StatusProcessing Status = iota + 1
	StatusCompleted
	StatusError
	StatusRefunding
	StatusRefunded
	StatusFixing
)

var statusNames = map[Status]string{
	StatusProcessing: "processing",
	StatusCompleted:  "completed",
	StatusError:      "error",
	StatusRefunding:  "refunding",
	StatusRefunded:   "refunded",
	StatusFixing:     "fixing",
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{StatusProcessing, StatusCompleted, StatusError, StatusRefunding, StatusRefunded, StatusFixing}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal reports whether the status ends a transaction's flow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRefunded
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}

	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

func (s Status) Value() (driver.Value, error) {
	b, err := s.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (s *Status) Scan(src any) error {
	return scanText(src, s.UnmarshalText)
}

// Location is the hop a transaction currently occupies.
type Location uint8

const (
	LocationOrigin Location = iota + 1
	LocationRoutable
	LocationDestination
)

var locationNames = map[Location]string{
	LocationOrigin:      "origination_bank",
	LocationRoutable:    "routable",
	LocationDestination: "destination_bank",
}

func (l Location) String() string {
	if name, ok := locationNames[l]; ok {
		return name
	}

	return fmt.Sprintf("Location(%d)", uint8(l))
}

func ParseLocation(s string) (Location, error) {
	for loc, name := range locationNames {
		if name == s {
			return loc, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLocation, s)
}

func (l Location) MarshalText() ([]byte, error) {
	if _, ok := locationNames[l]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLocation, uint8(l))
	}

	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(b []byte) error {
	parsed, err := ParseLocation(string(b))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

func (l Location) Value() (driver.Value, error) {
	b, err := l.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (l *Location) Scan(src any) error {
	return scanText(src, l.UnmarshalText)
}

func scanText(src any, unmarshal func([]byte) error) error {
	switch v := src.(type) {
	case string:
		return unmarshal([]byte(v))
	case []byte:
		return unmarshal(v)
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
}

// Step is a (status, location) pair.
type Step struct {
	Status   Status
	Location Location
}

// Initial is the only step a transaction may be created at.
var Initial = Step{Status: StatusProcessing, Location: LocationOrigin}

// NextMove returns the step a move advances to from current.
func NextMove(current Step) (Step, error) {
	switch current {
	case Step{StatusProcessing, LocationOrigin}:
		return Step{StatusProcessing, LocationRoutable}, nil
	case Step{StatusProcessing, LocationRoutable}:
		return Step{StatusCompleted, LocationDestination}, nil
	case Step{StatusFixing, LocationRoutable}:
		return Step{StatusProcessing, LocationRoutable}, nil
	case Step{StatusRefunding, LocationRoutable}:
		return Step{StatusRefunded, LocationOrigin}, nil
	default:
		return Step{}, fmt.Errorf("%w: %s at %s", ErrNoTransition, current.Status, current.Location)
	}
}
