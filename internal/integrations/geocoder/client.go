package geocoder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Client resolves coordinates to a human-readable address.
type Client interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// FallbackAddress is stored when no address could be resolved.
func FallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("Location: %s, %s", formatCoord(lat), formatCoord(lng))
}

// formatCoord prints the shortest exact form, keeping one decimal for whole numbers ("10.0").
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
