// Package fakeserver is a scripted NXCP server for tests. It serves a
// fixed object tree over loopback TCP, answers object and modification
// requests and records everything it receives.
package fakeserver

import (
	"maps"
	"slices"

	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// Object is one server-side object.
type Object struct {
	ID               uint64
	Name             string
	Class            objects.Class
	Status           objects.Status
	Parents          []uint64
	Children         []uint64
	CustomAttributes map[string]string
	ACL              []objects.AccessEntry
}

// Message encodes o as a full object message.
func (o Object) Message(code uint16, requestID uint32) *protocol.Message {
	m := protocol.NewMessage(code, requestID)
	m.SetUint64(protocol.TagObjectID, o.ID)
	m.SetString(protocol.TagObjectName, o.Name)
	m.SetInt16(protocol.TagObjectClass, int16(o.Class))
	m.SetInt16(protocol.TagObjectStatus, int16(o.Status))
	IDList(m, protocol.TagParentCount, protocol.TagParentIDBase, o.Parents)
	IDList(m, protocol.TagChildCount, protocol.TagChildIDBase, o.Children)

	m.SetUint32(protocol.TagCustomAttrCount, uint32(len(o.CustomAttributes)))
	tag := protocol.TagCustomAttrBase
	for _, k := range slices.Sorted(maps.Keys(o.CustomAttributes)) {
		m.SetString(tag, k)
		m.SetString(tag+1, o.CustomAttributes[k])
		tag += 2
	}

	m.SetUint32(protocol.TagACLSize, uint32(len(o.ACL)))
	for i, e := range o.ACL {
		m.SetUint32(protocol.TagACLUserBase+uint32(i), e.UserID)
		m.SetUint32(protocol.TagACLRightsBase+uint32(i), e.Rights)
	}
	return m
}

// IDList writes ids as a counted list starting at base.
func IDList(m *protocol.Message, countTag, base uint32, ids []uint64) {
	m.SetUint32(countTag, uint32(len(ids)))
	for i, id := range ids {
		m.SetUint64(base+uint32(i), id)
	}
}

// Completed returns a CMD_REQUEST_COMPLETED reply carrying rcc.
func Completed(req *protocol.Message, rcc int32) *protocol.Message {
	reply := protocol.NewReply(req, protocol.CmdRequestCompleted)
	reply.SetInt32(protocol.TagRCC, rcc)
	return reply
}
