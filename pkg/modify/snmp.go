package modify

import (
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// Wire codes for SNMP settings.
const (
	snmpVersion1  int16 = 0
	snmpVersion2c int16 = 1
	snmpVersion3  int16 = 3
)

// UnsupportedSNMPError is returned when a gosnmp value has no wire code.
type UnsupportedSNMPError struct {
	Kind  string
	Value string
}

func (e *UnsupportedSNMPError) Error() string {
	return fmt.Sprintf("modify: unsupported SNMP %s %q", e.Kind, e.Value)
}

func snmpVersionCode(v gosnmp.SnmpVersion) (int16, error) {
	switch v {
	case gosnmp.Version1:
		return snmpVersion1, nil
	case gosnmp.Version2c:
		return snmpVersion2c, nil
	case gosnmp.Version3:
		return snmpVersion3, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "version", Value: v.String()}
}

// The zero value of the gosnmp protocol types means "not configured" and
// is sent as none.
func snmpAuthCode(p gosnmp.SnmpV3AuthProtocol) (int16, error) {
	switch p {
	case 0, gosnmp.NoAuth:
		return 0, nil
	case gosnmp.MD5:
		return 1, nil
	case gosnmp.SHA:
		return 2, nil
	case gosnmp.SHA224:
		return 3, nil
	case gosnmp.SHA256:
		return 4, nil
	case gosnmp.SHA384:
		return 5, nil
	case gosnmp.SHA512:
		return 6, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "auth protocol", Value: p.String()}
}

func snmpPrivCode(p gosnmp.SnmpV3PrivProtocol) (int16, error) {
	switch p {
	case 0, gosnmp.NoPriv:
		return 0, nil
	case gosnmp.DES:
		return 1, nil
	case gosnmp.AES:
		return 2, nil
	case gosnmp.AES192, gosnmp.AES192C:
		return 3, nil
	case gosnmp.AES256, gosnmp.AES256C:
		return 4, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "priv protocol", Value: p.String()}
}

// ParseSNMPVersion accepts "1", "2c" (or "2") and "3".
func ParseSNMPVersion(s string) (gosnmp.SnmpVersion, error) {
	switch strings.ToLower(s) {
	case "1", "v1":
		return gosnmp.Version1, nil
	case "2", "2c", "v2c":
		return gosnmp.Version2c, nil
	case "3", "v3":
		return gosnmp.Version3, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "version", Value: s}
}

// ParseSNMPAuthProtocol accepts none, md5, sha, sha224, sha256, sha384
// and sha512.
func ParseSNMPAuthProtocol(s string) (gosnmp.SnmpV3AuthProtocol, error) {
	switch strings.ToLower(s) {
	case "", "none", "noauth":
		return gosnmp.NoAuth, nil
	case "md5":
		return gosnmp.MD5, nil
	case "sha":
		return gosnmp.SHA, nil
	case "sha224":
		return gosnmp.SHA224, nil
	case "sha256":
		return gosnmp.SHA256, nil
	case "sha384":
		return gosnmp.SHA384, nil
	case "sha512":
		return gosnmp.SHA512, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "auth protocol", Value: s}
}

// ParseSNMPPrivProtocol accepts none, des, aes, aes192, aes256, aes192c
// and aes256c.
func ParseSNMPPrivProtocol(s string) (gosnmp.SnmpV3PrivProtocol, error) {
	switch strings.ToLower(s) {
	case "", "none", "nopriv":
		return gosnmp.NoPriv, nil
	case "des":
		return gosnmp.DES, nil
	case "aes":
		return gosnmp.AES, nil
	case "aes192":
		return gosnmp.AES192, nil
	case "aes256":
		return gosnmp.AES256, nil
	case "aes192c":
		return gosnmp.AES192C, nil
	case "aes256c":
		return gosnmp.AES256C, nil
	}
	return 0, &UnsupportedSNMPError{Kind: "priv protocol", Value: s}
}
