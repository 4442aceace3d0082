package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. IDs generated by one process are strictly
// increasing, even within the same millisecond, so they double as a
// creation-order tiebreaker for records sharing a timestamp.
func New() string {
	return ulid.Make().String()
}

// Time reports the creation time encoded in an ID produced by New.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
