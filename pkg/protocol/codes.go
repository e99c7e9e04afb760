// Package protocol implements NXCP, the binary message protocol spoken
// between the management server and its clients: command codes, field tags,
// the tagged-field Message model, and the frame codec.
package protocol

import "fmt"

// Command codes identify the message kind carried in a frame header.
const (
	CmdLogin            uint16 = 0x0001
	CmdLoginResp        uint16 = 0x0002
	CmdKeepalive        uint16 = 0x0003
	CmdGetObjects       uint16 = 0x0005
	CmdObject           uint16 = 0x0006
	CmdDeleteObject     uint16 = 0x0007
	CmdModifyObject     uint16 = 0x0008
	CmdObjectListEnd    uint16 = 0x0009
	CmdObjectUpdate     uint16 = 0x000A
	CmdRequestCompleted uint16 = 0x001D
	CmdGetNXCPCaps      uint16 = 0x0135
	CmdNXCPCaps         uint16 = 0x0136
)

// CommandNames maps command codes to the identifiers used in logs.
var CommandNames = map[uint16]string{
	CmdLogin:            "CMD_LOGIN",
	CmdLoginResp:        "CMD_LOGIN_RESP",
	CmdKeepalive:        "CMD_KEEPALIVE",
	CmdGetObjects:       "CMD_GET_OBJECTS",
	CmdObject:           "CMD_OBJECT",
	CmdDeleteObject:     "CMD_DELETE_OBJECT",
	CmdModifyObject:     "CMD_MODIFY_OBJECT",
	CmdObjectListEnd:    "CMD_OBJECT_LIST_END",
	CmdObjectUpdate:     "CMD_OBJECT_UPDATE",
	CmdRequestCompleted: "CMD_REQUEST_COMPLETED",
	CmdGetNXCPCaps:      "CMD_GET_NXCP_CAPS",
	CmdNXCPCaps:         "CMD_NXCP_CAPS",
}

// CommandName returns the symbolic name of code, or its hex form when the
// code is not known to this client.
func CommandName(code uint16) string {
	if name, ok := CommandNames[code]; ok {
		return name
	}
	return fmt.Sprintf("CMD_0x%04X", code)
}

// Request completion codes carried in TagRCC.
const (
	RCCSuccess         int32 = 0
	RCCComponentLocked int32 = 1
	RCCAccessDenied    int32 = 2
	RCCInvalidRequest  int32 = 3
	RCCTimeout         int32 = 4
	RCCInvalidObject   int32 = 7
	RCCInternalError   int32 = 9
	RCCIOError         int32 = 10
)

// RCCNames maps request completion codes to readable identifiers.
var RCCNames = map[int32]string{
	RCCSuccess:         "SUCCESS",
	RCCComponentLocked: "COMPONENT_LOCKED",
	RCCAccessDenied:    "ACCESS_DENIED",
	RCCInvalidRequest:  "INVALID_REQUEST",
	RCCTimeout:         "TIMEOUT",
	RCCInvalidObject:   "INVALID_OBJECT_ID",
	RCCInternalError:   "INTERNAL_ERROR",
	RCCIOError:         "IO_ERROR",
}
