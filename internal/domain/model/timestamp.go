package model

import (
	"encoding/json"
	"math"
	"time"
)

// Timestamp is a point in time stored on disk as fractional unix seconds.
type Timestamp struct {
	time.Time
}

func Now() Timestamp { return Timestamp{Time: time.Now()} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("0"), nil
	}
	secs := float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
	return json.Marshal(secs)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	if secs == 0 {
		t.Time = time.Time{}
		return nil
	}
	whole, frac := math.Modf(secs)
	t.Time = time.Unix(int64(whole), int64(frac*float64(time.Second)))
	return nil
}
