package objects

import (
	"fmt"
	"strconv"
	"strings"
)

// Class is the kind of a managed object.
type Class int16

const (
	ClassAny               Class = -1
	ClassGeneric           Class = 0
	ClassSubnet            Class = 1
	ClassNode              Class = 2
	ClassInterface         Class = 3
	ClassNetwork           Class = 4
	ClassContainer         Class = 5
	ClassZone              Class = 6
	ClassServiceRoot       Class = 7
	ClassTemplate          Class = 8
	ClassTemplateGroup     Class = 9
	ClassTemplateRoot      Class = 10
	ClassNetworkService    Class = 11
	ClassVPNConnector      Class = 12
	ClassCondition         Class = 13
	ClassCluster           Class = 14
	ClassPolicyGroup       Class = 15
	ClassPolicyRoot        Class = 16
	ClassAgentPolicy       Class = 17
	ClassAgentPolicyConfig Class = 18
	ClassNetworkMapRoot    Class = 19
	ClassNetworkMapGroup   Class = 20
	ClassNetworkMap        Class = 21
)

var classNames = map[Class]string{
	ClassAny:               "any",
	ClassGeneric:           "generic",
	ClassSubnet:            "subnet",
	ClassNode:              "node",
	ClassInterface:         "interface",
	ClassNetwork:           "network",
	ClassContainer:         "container",
	ClassZone:              "zone",
	ClassServiceRoot:       "service-root",
	ClassTemplate:          "template",
	ClassTemplateGroup:     "template-group",
	ClassTemplateRoot:      "template-root",
	ClassNetworkService:    "network-service",
	ClassVPNConnector:      "vpn-connector",
	ClassCondition:         "condition",
	ClassCluster:           "cluster",
	ClassPolicyGroup:       "policy-group",
	ClassPolicyRoot:        "policy-root",
	ClassAgentPolicy:       "agent-policy",
	ClassAgentPolicyConfig: "agent-policy-config",
	ClassNetworkMapRoot:    "network-map-root",
	ClassNetworkMapGroup:   "network-map-group",
	ClassNetworkMap:        "network-map",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "class-" + strconv.Itoa(int(c))
}

// ParseClass accepts a class name as printed by String, or its number.
func ParseClass(s string) (Class, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	if n, err := strconv.ParseInt(strings.TrimPrefix(s, "class-"), 10, 16); err == nil && n >= -1 {
		return Class(n), nil
	}
	return 0, fmt.Errorf("objects: unknown object class %q", s)
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Class) UnmarshalText(text []byte) error {
	v, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Status is the operational status of an object, ordered by severity up to
// StatusCritical.
type Status int16

const (
	StatusNormal    Status = 0
	StatusWarning   Status = 1
	StatusMinor     Status = 2
	StatusMajor     Status = 3
	StatusCritical  Status = 4
	StatusUnknown   Status = 5
	StatusUnmanaged Status = 6
	StatusDisabled  Status = 7
	StatusTesting   Status = 8
)

var statusNames = [...]string{
	StatusNormal:    "normal",
	StatusWarning:   "warning",
	StatusMinor:     "minor",
	StatusMajor:     "major",
	StatusCritical:  "critical",
	StatusUnknown:   "unknown",
	StatusUnmanaged: "unmanaged",
	StatusDisabled:  "disabled",
	StatusTesting:   "testing",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "status-" + strconv.Itoa(int(s))
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range statusNames {
		if n == name {
			*s = Status(i)
			return nil
		}
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(name, "status-"), 10, 16)
	if err != nil {
		return fmt.Errorf("objects: unknown status %q", name)
	}
	*s = Status(n)
	return nil
}

// GeoType tells where a geolocation came from.
type GeoType int16

const (
	GeoUnset  GeoType = 0
	GeoManual GeoType = 1
	GeoGPS    GeoType = 2
)

// GeoLocation is an object's position.
type GeoLocation struct {
	Type      GeoType `json:"type" yaml:"type"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// AccessEntry grants Rights to a user or group.
type AccessEntry struct {
	UserID uint32 `json:"user_id" yaml:"user_id"`
	Rights uint32 `json:"rights" yaml:"rights"`
}

// SyncState records whether an object's children are known to be fully
// loaded in the store.
type SyncState int

const (
	SyncUnknown SyncState = iota // never synchronized
	SyncSynced
	SyncStale // was synchronized; the server has since reported a different child count
)

func (s SyncState) String() string {
	switch s {
	case SyncSynced:
		return "synced"
	case SyncStale:
		return "stale"
	}
	return "unknown"
}
