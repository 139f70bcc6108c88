package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "AttendanceApp/1.0"

	// Отчёты рисуются шрифтами cp1252, поэтому адреса просим латиницей.
	addressLanguage = "en"
)

type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type reverseResp struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/reverse"

	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")
	q.Set("accept-language", addressLanguage)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	// Nominatim отклоняет запросы без User-Agent.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", addressLanguage)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("nominatim http %d", resp.StatusCode)
	}

	var r reverseResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", errors.Wrap(err, "decode")
	}
	if r.Error != "" {
		return "", fmt.Errorf("nominatim: %s", r.Error)
	}

	if addr := formatAddress(r.Address); addr != "" {
		return addr, nil
	}
	if r.DisplayName != "" {
		return r.DisplayName, nil
	}
	return "", errors.New("nominatim: empty address")
}

// formatAddress builds "house road, locality, city, state" from the structured parts.
func formatAddress(a map[string]string) string {
	if len(a) == 0 {
		return ""
	}

	var parts []string
	if a["house_number"] != "" {
		parts = append(parts, a["house_number"])
	}
	if a["road"] != "" {
		if len(parts) > 0 {
			parts[0] = parts[0] + " " + a["road"]
		} else {
			parts = append(parts, a["road"])
		}
	}
	if v := firstOf(a, "neighbourhood", "suburb", "village", "town"); v != "" {
		parts = append(parts, v)
	}
	if v := firstOf(a, "city", "municipality"); v != "" {
		parts = append(parts, v)
	}
	if v := firstOf(a, "state", "region"); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

func firstOf(a map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := a[k]; v != "" {
			return v
		}
	}
	return ""
}
