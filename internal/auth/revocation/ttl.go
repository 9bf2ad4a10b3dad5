package revocation

import (
	"fmt"
	"time"

	"epp-gateway/pkg/platform/sentinel"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func nonEmpty(jtis []string) []string {
	out := make([]string, 0, len(jtis))
	for _, jti := range jtis {
		if jti != "" {
			out = append(out, jti)
		}
	}
	return out
}
