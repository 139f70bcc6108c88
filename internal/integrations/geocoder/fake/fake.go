package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

var streets = []string{"MG Road", "Brigade Road", "Residency Road", "Church Street", "Park Street"}

// FakeClient: детерминированный геокодер для локального запуска без внешнего API.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%.5f|%.5f", lat, lng)
	v := h.Sum32()

	return fmt.Sprintf("%d %s, Block %d", v%200+1, streets[v%uint32(len(streets))], int(math.Abs(lat*10))%50+1), nil
}
