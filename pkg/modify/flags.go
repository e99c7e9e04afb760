// Package modify builds sparse object modification requests. A
// Modification records which field groups were touched and encodes only
// those into a single CMD_MODIFY_OBJECT message.
package modify

import (
	"fmt"
	"math/bits"
	"strings"
)

// Flags is the dirty-bit mask sent with a modification. Values match the
// server's MODIFY_* constants.
type Flags uint64

const (
	FlagName              Flags = 0x00000001
	FlagACL               Flags = 0x00000002
	FlagCustomAttributes  Flags = 0x00000004
	FlagAutoApply         Flags = 0x00000008
	FlagAutoBind          Flags = 0x00000010
	FlagPolicyConfig      Flags = 0x00000020
	FlagVersion           Flags = 0x00000040
	FlagDescription       Flags = 0x00000080
	FlagAgentPort         Flags = 0x00000100
	FlagAgentAuth         Flags = 0x00000200
	FlagSNMPVersion       Flags = 0x00000400
	FlagSNMPAuth          Flags = 0x00000800
	FlagAgentProxy        Flags = 0x00001000
	FlagSNMPProxy         Flags = 0x00002000
	FlagTrustedNodes      Flags = 0x00004000
	FlagGeolocation       Flags = 0x00008000
	FlagPrimaryIP         Flags = 0x00010000
	FlagSNMPPort          Flags = 0x00020000
	FlagMapLayout         Flags = 0x00040000
	FlagMapBackground     Flags = 0x00080000
	FlagMapContent        Flags = 0x00100000
	FlagImage             Flags = 0x00200000
	FlagICMPProxy         Flags = 0x00400000
	FlagScript            Flags = 0x02000000
	FlagNodeFlags         Flags = 0x020000000000
	FlagReportDefinition  Flags = 0x080000000000
	FlagPrimaryName       Flags = 0x200000000000
	FlagStatusCalculation Flags = 0x400000000000
)

var flagNames = map[Flags]string{
	FlagName:              "NAME",
	FlagACL:               "ACL",
	FlagCustomAttributes:  "CUSTOM_ATTRIBUTES",
	FlagAutoApply:         "AUTO_APPLY",
	FlagAutoBind:          "AUTO_BIND",
	FlagPolicyConfig:      "POLICY_CONFIG",
	FlagVersion:           "VERSION",
	FlagDescription:       "DESCRIPTION",
	FlagAgentPort:         "AGENT_PORT",
	FlagAgentAuth:         "AGENT_AUTH",
	FlagSNMPVersion:       "SNMP_VERSION",
	FlagSNMPAuth:          "SNMP_AUTH",
	FlagAgentProxy:        "AGENT_PROXY",
	FlagSNMPProxy:         "SNMP_PROXY",
	FlagTrustedNodes:      "TRUSTED_NODES",
	FlagGeolocation:       "GEOLOCATION",
	FlagPrimaryIP:         "PRIMARY_IP",
	FlagSNMPPort:          "SNMP_PORT",
	FlagMapLayout:         "MAP_LAYOUT",
	FlagMapBackground:     "MAP_BACKGROUND",
	FlagMapContent:        "MAP_CONTENT",
	FlagImage:             "IMAGE",
	FlagICMPProxy:         "ICMP_PROXY",
	FlagScript:            "SCRIPT",
	FlagNodeFlags:         "NODE_FLAGS",
	FlagReportDefinition:  "REPORT_DEFINITION",
	FlagPrimaryName:       "PRIMARY_NAME",
	FlagStatusCalculation: "STATUS_CALCULATION",
}

// Has reports whether every bit in f2 is set in f.
func (f Flags) Has(f2 Flags) bool { return f2 != 0 && f&f2 == f2 }

// Count returns the number of dirty groups.
func (f Flags) Count() int { return bits.OnesCount64(uint64(f)) }

// String renders the mask as NAME|ACL, lowest bit first. Bits without a
// known name are printed in hex.
func (f Flags) String() string {
	if f == 0 {
		return "NONE"
	}
	var parts []string
	for rest := uint64(f); rest != 0; rest &= rest - 1 {
		bit := Flags(rest & -rest)
		if name, ok := flagNames[bit]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("0x%X", uint64(bit)))
		}
	}
	return strings.Join(parts, "|")
}
