package reports

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "January 02, 2006"
	stampLayout   = "January 02, 2006 at 15:04"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName makes a display name safe for use in a file name.
func SanitizeName(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}

func DailyFilename(name string, date time.Time) string {
	return fmt.Sprintf("%s_%s_DailyReport.pdf", SanitizeName(name), date.Format(DateLayout))
}

func SessionFilename(name string, sessionID uint64, date time.Time) string {
	return fmt.Sprintf("%s_Session_%d_%s.pdf", SanitizeName(name), sessionID, date.Format(DateLayout))
}

func RangeFilename(name string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_to_%s_Report.pdf", SanitizeName(name), start.Format(DateLayout), end.Format(DateLayout))
}
