package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Timestamp is a JWT NumericDate that keeps nanosecond precision on the wire.
// It encodes as decimal seconds ("1773480413.589") and decodes the decimal digits
// exactly, so a token expires at the instant it was issued for rather than at a
// rounded second.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, dropping any monotonic clock reading.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t.Round(0)}
}

// NumericDate converts to golang-jwt's type for claim validation.
func (ts *Timestamp) NumericDate() *jwt.NumericDate {
	if ts == nil {
		return nil
	}
	return &jwt.NumericDate{Time: ts.Time}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	sec := ts.Unix()
	nsec := ts.Nanosecond()
	if nsec == 0 {
		return []byte(strconv.FormatInt(sec, 10)), nil
	}
	if sec < 0 {
		// -1.25 is written as sec=-2, nsec=750ms; fold into a signed decimal
		sec++
		nsec = int(time.Second) - nsec
		frac := strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
		if sec == 0 {
			return []byte("-0." + frac), nil
		}
		return []byte(strconv.FormatInt(sec, 10) + "." + frac), nil
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
	return []byte(strconv.FormatInt(sec, 10) + "." + frac), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}

	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric date %q: %w", s, err)
		}
		sec := int64(f)
		ts.Time = time.Unix(sec, int64((f-float64(sec))*float64(time.Second)))
		return nil
	}

	negative := strings.HasPrefix(s, "-")
	whole, frac, _ := strings.Cut(strings.TrimPrefix(s, "-"), ".")
	usec, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return fmt.Errorf("invalid numeric date %q: %w", s, err)
	}
	sec := int64(usec)

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		fracNsec, err := strconv.ParseUint(frac, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid numeric date %q: %w", s, err)
		}
		nsec = int64(fracNsec)
	}

	if negative {
		sec, nsec = -sec, -nsec
	}
	ts.Time = time.Unix(sec, nsec)
	return nil
}
