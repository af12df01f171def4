package providers

import (
	"errors"
	"strings"
)

func cloneProfile(profile map[string]string) map[string]string {
	if len(profile) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(profile))
	for key, value := range profile {
		out[key] = value
	}
	return out
}

func isDismissal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLoginDismissed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "dismissed") ||
		strings.Contains(msg, "rejected") ||
		strings.Contains(msg, "denied") ||
		strings.Contains(msg, "cancelled") ||
		strings.Contains(msg, "canceled")
}

func firstAddress(addresses []string) string {
	for _, address := range addresses {
		trimmed := strings.TrimSpace(address)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
