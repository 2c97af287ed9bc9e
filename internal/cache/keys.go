package cache

import "fmt"

// RateLimitKey namespaces a per-client counter by the action being limited.
func RateLimitKey(action, client string) string {
	return fmt.Sprintf("ytblog:ratelimit:%s:%s", action, client)
}
