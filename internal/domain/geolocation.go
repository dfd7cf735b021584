package domain

import (
	"net/netip"
	"strings"
	"time"
)

// DefaultMapZoom is the zoom level requested from the static map provider.
const DefaultMapZoom = 7

// ipv4Space is the size of the IPv4 address space (2^32).
const ipv4Space = float64(1 << 32)

// LatitudeFromIP maps an IPv4 address linearly onto [90, -90]:
// 0.0.0.0 is the north pole and 255.255.255.255 is just above the south pole.
// This is not a geolocation lookup.
func LatitudeFromIP(ip string) (float64, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return 0, &ValidationError{
			Field:      "ip",
			Value:      ip,
			Constraint: "IPv4 address",
			Message:    "not a valid IP address",
			Err:        ErrInvalidIP,
		}
	}

	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, &ValidationError{
			Field:      "ip",
			Value:      ip,
			Constraint: "IPv4 address",
			Message:    "only IPv4 addresses are supported",
			Err:        ErrInvalidIP,
		}
	}

	b := addr.As4()
	n := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])

	return 90 - (180 * float64(n) / ipv4Space), nil
}

// LongitudeFromTime derives a longitude in [-180, 180) from the wall-clock
// hour and minute of t in its own location.
func LongitudeFromTime(t time.Time) float64 {
	return float64(t.Hour())*15 + float64(t.Minute())/60 - 180
}

// ApproximateLocation builds the pseudo-geolocation used to center the map.
func ApproximateLocation(ip string, now time.Time) (Coordinate, error) {
	lat, err := LatitudeFromIP(ip)
	if err != nil {
		return Coordinate{}, err
	}
	return NewCoordinate(lat, LongitudeFromTime(now)), nil
}
