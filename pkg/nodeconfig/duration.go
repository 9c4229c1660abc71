package nodeconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDuration accepts bare seconds ("30") or a suffixed duration
// ("30s", "5m", "2h", "1d"), per the command-naming conventions in
// spec.md 6. time.ParseDuration already understands s/m/h; "d" is handled
// separately since the standard library has no day unit.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("bad day count: %w", err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
