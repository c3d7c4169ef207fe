package geofence

import (
	"fmt"
	"strings"
)

// PermissionStatus mirrors the location authorization states a device
// reports.
type PermissionStatus int

const (
	PermissionNotDetermined PermissionStatus = iota
	PermissionRestricted
	PermissionDenied
	PermissionWhenInUse
	PermissionAlways
)

var permissionNames = map[PermissionStatus]string{
	PermissionNotDetermined: "not_determined",
	PermissionRestricted:    "restricted",
	PermissionDenied:        "denied",
	PermissionWhenInUse:     "when_in_use",
	PermissionAlways:        "always",
}

func (p PermissionStatus) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return "unknown"
}

// Authorized reports whether region monitoring may be enabled.
func (p PermissionStatus) Authorized() bool {
	return p == PermissionWhenInUse || p == PermissionAlways
}

func ParsePermission(s string) (PermissionStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for status, name := range permissionNames {
		if name == normalized {
			return status, nil
		}
	}
	return PermissionNotDetermined, fmt.Errorf("unknown permission status %q", s)
}
