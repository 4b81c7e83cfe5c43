package util

import (
	"fmt"
	"strings"

	"github.com/mssola/user_agent"
)

type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot"`
}

// ParseUserAgent extracts browser and platform details from a User-Agent header.
func ParseUserAgent(raw string) DeviceInfo {
	if strings.TrimSpace(raw) == "" {
		return DeviceInfo{Browser: "unknown", OS: "unknown"}
	}
	ua := user_agent.New(raw)
	name, version := ua.Browser()
	browser := name
	if version != "" {
		browser = fmt.Sprintf("%s %s", name, version)
	}
	osName := ua.OS()
	if osName == "" {
		osName = "unknown"
	}
	return DeviceInfo{
		Browser: browser,
		OS:      osName,
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// Summary is a short label suitable for audit rows.
func (d DeviceInfo) Summary() string {
	kind := "desktop"
	switch {
	case d.Bot:
		kind = "bot"
	case d.Mobile:
		kind = "mobile"
	}
	s := fmt.Sprintf("%s on %s (%s)", d.Browser, d.OS, kind)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
