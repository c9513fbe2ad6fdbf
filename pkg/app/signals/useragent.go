package signals

import (
	"fmt"
	"strings"

	"github.com/avct/uasurfer"
)

var automationMarkers = []string{
	"curl/", "wget/", "python-requests", "python-urllib", "go-http-client",
	"libwww-perl", "java/", "okhttp", "httpclient", "scrapy",
	"sqlmap", "nikto", "nmap", "masscan", "zgrab", "nuclei", "hydra",
}

type UserAgentInfo struct {
	Browser    string
	OS         string
	Device     string
	Suspicious bool
}

// ParseUserAgent classifies a User-Agent header. Empty agents, declared
// bots and known scripting or scanning tools are flagged as suspicious.
func ParseUserAgent(raw string) UserAgentInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UserAgentInfo{Device: "Unknown", Suspicious: true}
	}
	ua := uasurfer.Parse(raw)

	info := UserAgentInfo{
		Browser: fmt.Sprintf("%s %d.%d", ua.Browser.Name.String(), ua.Browser.Version.Major, ua.Browser.Version.Minor),
		OS:      fmt.Sprintf("%s %d.%d", ua.OS.Name.String(), ua.OS.Version.Major, ua.OS.Version.Minor),
		Device:  deviceName(ua.DeviceType),
	}

	lower := strings.ToLower(raw)
	for _, marker := range automationMarkers {
		if strings.Contains(lower, marker) {
			info.Suspicious = true
			return info
		}
	}
	if ua.IsBot() || (ua.DeviceType == uasurfer.DeviceUnknown && ua.Browser.Name == uasurfer.BrowserUnknown) {
		info.Suspicious = true
	}
	return info
}

func deviceName(d uasurfer.DeviceType) string {
	switch d {
	case uasurfer.DeviceComputer:
		return "Computer"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
