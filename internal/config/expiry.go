package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expiry is a duration that also accepts a day suffix ("7d").
type Expiry time.Duration

func (e *Expiry) EnvDecode(val string) error {
	d, err := ParseExpiry(val)
	if err != nil {
		return err
	}
	*e = Expiry(d)
	return nil
}

func (e Expiry) Duration() time.Duration {
	return time.Duration(e)
}

func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty expiry")
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid expiry %q", s)
	}
	return d, nil
}
