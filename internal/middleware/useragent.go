package middleware

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// clientInfo extracts browser, OS and device class from a User-Agent header.
func clientInfo(userAgent string) (browser, os, device string) {
	if userAgent == "" {
		return "unknown", "unknown", "unknown"
	}

	parsed := ua.Parse(userAgent)
	browser, os = parsed.Name, parsed.OS
	if browser == "" {
		browser = "unknown"
	}
	if os == "" {
		os = "unknown"
	}

	switch {
	case parsed.Bot:
		device = "bot"
	case parsed.Tablet:
		device = "tablet"
	case parsed.Mobile:
		device = "mobile"
	default:
		device = "desktop"
	}
	return strings.TrimSpace(browser), strings.TrimSpace(os), device
}
