package internal

import (
	"strings"

	"github.com/mssola/user_agent"
)

// DeviceInfo is a coarse description of a client parsed from its User-Agent.
type DeviceInfo struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Type           string `json:"device_type"`
}

// ParseDevice classifies a User-Agent header. An empty header yields type
// "unknown".
func ParseDevice(header string) DeviceInfo {
	header = strings.TrimSpace(header)
	if header == "" {
		return DeviceInfo{Type: "unknown"}
	}

	ua := user_agent.New(header)
	name, version := ua.Browser()
	info := DeviceInfo{
		Browser:        name,
		BrowserVersion: version,
		OS:             ua.OS(),
		Type:           "desktop",
	}

	lower := strings.ToLower(header)
	switch {
	case ua.Bot():
		info.Type = "bot"
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		info.Type = "tablet"
	case ua.Mobile():
		info.Type = "mobile"
	}
	return info
}

// Summary renders the device as "<browser> <version> on <os> (<type>)",
// dropping empty parts.
func (d DeviceInfo) Summary() string {
	var b strings.Builder
	if d.Browser != "" {
		b.WriteString(d.Browser)
		if d.BrowserVersion != "" {
			b.WriteByte(' ')
			b.WriteString(d.BrowserVersion)
		}
	}
	if d.OS != "" {
		if b.Len() > 0 {
			b.WriteString(" on ")
		}
		b.WriteString(d.OS)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteByte('(')
	b.WriteString(d.Type)
	b.WriteByte(')')
	return b.String()
}
