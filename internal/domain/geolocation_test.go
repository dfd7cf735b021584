package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLatitudeFromIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want float64
	}{
		{"lowest address", "0.0.0.0", 90},
		{"highest address", "255.255.255.255", 90 - 180*float64(math.MaxUint32)/4294967296},
		{"loopback", "127.0.0.1", 90 - 180*float64(2130706433)/4294967296},
		{"midpoint", "128.0.0.0", 0},
		{"quarter", "64.0.0.0", 45},
		{"surrounding whitespace", " 10.0.0.1 ", 90 - 180*float64(167772161)/4294967296},
		{"IPv4-mapped IPv6", "::ffff:128.0.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatitudeFromIP(tt.ip)
			if err != nil {
				t.Fatalf("LatitudeFromIP(%q) error = %v", tt.ip, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LatitudeFromIP(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestLatitudeFromIPBounds(t *testing.T) {
	got, err := LatitudeFromIP("255.255.255.255")
	if err != nil {
		t.Fatalf("LatitudeFromIP() error = %v", err)
	}
	if math.Abs(got+90) > 1e-6 {
		t.Errorf("LatitudeFromIP(255.255.255.255) = %v, want approximately -90", got)
	}
	if got <= -90 {
		t.Errorf("LatitudeFromIP(255.255.255.255) = %v, should stay above -90", got)
	}
}

func TestLatitudeFromIPInvalid(t *testing.T) {
	tests := []string{
		"",
		"not-an-ip",
		"256.0.0.1",
		"1.2.3",
		"::1",
		"2001:db8::1",
		"fe80::1%eth0",
	}

	for _, ip := range tests {
		t.Run(ip, func(t *testing.T) {
			_, err := LatitudeFromIP(ip)
			if !errors.Is(err, ErrInvalidIP) {
				t.Errorf("LatitudeFromIP(%q) error = %v, want ErrInvalidIP", ip, err)
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("LatitudeFromIP(%q) error = %v, want ErrInvalidArgument", ip, err)
			}
		})
	}
}

func TestLongitudeFromTime(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		want float64
	}{
		{"midnight", 0, 0, -180},
		{"noon", 12, 0, 0},
		{"half past noon", 12, 30, 0.5},
		{"six am", 6, 0, -90},
		{"last minute of day", 23, 59, 165 + 59.0/60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Date(2024, 3, 10, tt.hour, tt.min, 42, 0, time.UTC)
			got := LongitudeFromTime(ts)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LongitudeFromTime(%s) = %v, want %v", ts.Format("15:04"), got, tt.want)
			}
			if got < -180 || got >= 180 {
				t.Errorf("LongitudeFromTime(%s) = %v, out of [-180, 180)", ts.Format("15:04"), got)
			}
		})
	}
}

func TestLongitudeFromTimeUsesLocation(t *testing.T) {
	utc := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	plusTwo := utc.In(time.FixedZone("UTC+2", 2*60*60))

	if got := LongitudeFromTime(utc); got != 0 {
		t.Errorf("LongitudeFromTime(utc) = %v, want 0", got)
	}
	if got := LongitudeFromTime(plusTwo); got != 30 {
		t.Errorf("LongitudeFromTime(utc+2) = %v, want 30", got)
	}
}

func TestApproximateLocation(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	c, err := ApproximateLocation("128.0.0.0", now)
	if err != nil {
		t.Fatalf("ApproximateLocation() error = %v", err)
	}
	if c.Latitude != 0 || c.Longitude != 0 {
		t.Errorf("ApproximateLocation() = %v, want (0, 0)", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("coordinate should be valid: %v", err)
	}

	if _, err := ApproximateLocation("::1", now); !errors.Is(err, ErrInvalidIP) {
		t.Errorf("ApproximateLocation(::1) error = %v, want ErrInvalidIP", err)
	}
}
