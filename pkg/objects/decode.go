package objects

import (
	"cmp"
	"slices"

	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// applyMessage copies the attributes carried by m onto o. A full message
// first resets every server-owned attribute to its default, so fields it
// omits read as empty; a partial update changes only what is present. List
// attributes are replaced whenever their count field is present.
func applyMessage(o *Object, m *protocol.Message, full bool) {
	if full {
		fresh := newObject(o.ID)
		fresh.Annotations = o.Annotations
		fresh.ChildSync = o.ChildSync
		*o = *fresh
	}

	if m.Has(protocol.TagGUID) {
		o.GUID = m.GetUUID(protocol.TagGUID)
	}
	if m.Has(protocol.TagObjectName) {
		o.Name = m.GetString(protocol.TagObjectName)
	}
	if m.Has(protocol.TagPrimaryName) {
		o.PrimaryName = m.GetString(protocol.TagPrimaryName)
	}
	if m.Has(protocol.TagObjectClass) {
		o.Class = Class(m.GetInt16(protocol.TagObjectClass))
	}
	if m.Has(protocol.TagObjectStatus) {
		o.Status = Status(m.GetInt16(protocol.TagObjectStatus))
	}
	if m.Has(protocol.TagIsDeleted) {
		o.Deleted = m.GetBool(protocol.TagIsDeleted)
	}
	if m.Has(protocol.TagIPAddress) {
		o.PrimaryIP = m.GetInetAddress(protocol.TagIPAddress)
	}
	if m.Has(protocol.TagComments) {
		o.Comments = m.GetString(protocol.TagComments)
	}
	if m.Has(protocol.TagGeoType) {
		o.Geolocation = GeoLocation{
			Type:      GeoType(m.GetInt16(protocol.TagGeoType)),
			Latitude:  m.GetFloat64(protocol.TagLatitude),
			Longitude: m.GetFloat64(protocol.TagLongitude),
		}
	}
	if m.Has(protocol.TagImage) {
		o.Image = m.GetUUID(protocol.TagImage)
	}

	if m.Has(protocol.TagParentCount) {
		o.Parents = readIDList(m, protocol.TagParentCount, protocol.TagParentIDBase)
	}
	if m.Has(protocol.TagChildCount) {
		o.Children = readIDList(m, protocol.TagChildCount, protocol.TagChildIDBase)
	}
	if m.Has(protocol.TagTrustedNodeCount) {
		o.TrustedNodes = readIDList(m, protocol.TagTrustedNodeCount, protocol.TagTrustedNodeBase)
	}

	if m.Has(protocol.TagCustomAttrCount) {
		n := listCount(m, protocol.TagCustomAttrCount)
		attrs := make(map[string]string, n)
		for i, tag := 0, protocol.TagCustomAttrBase; i < n; i, tag = i+1, tag+2 {
			if m.Has(tag) {
				attrs[m.GetString(tag)] = m.GetString(tag + 1)
			}
		}
		o.CustomAttributes = attrs
	}

	if m.Has(protocol.TagInheritRights) {
		o.InheritAccessRights = m.GetBool(protocol.TagInheritRights)
	}
	if m.Has(protocol.TagACLSize) {
		o.ACL = readACL(m)
	}
}

func listCount(m *protocol.Message, countTag uint32) int {
	return int(min(m.GetUint32(countTag), protocol.MaxListEntries))
}

func readIDList(m *protocol.Message, countTag, base uint32) IDSet {
	n := listCount(m, countTag)
	ids := make(IDSet, n)
	for i := 0; i < n; i++ {
		tag := base + uint32(i)
		if m.Has(tag) {
			ids.Add(m.GetUint64(tag))
		}
	}
	return ids
}

// readACL returns one entry per user, the last one sent winning, ordered by
// user id.
func readACL(m *protocol.Message) []AccessEntry {
	n := listCount(m, protocol.TagACLSize)
	byUser := make(map[uint32]uint32, n)
	for i := 0; i < n; i++ {
		user := protocol.TagACLUserBase + uint32(i)
		if !m.Has(user) {
			continue
		}
		byUser[m.GetUint32(user)] = m.GetUint32(protocol.TagACLRightsBase + uint32(i))
	}
	acl := make([]AccessEntry, 0, len(byUser))
	for user, rights := range byUser {
		acl = append(acl, AccessEntry{UserID: user, Rights: rights})
	}
	slices.SortFunc(acl, func(a, b AccessEntry) int { return cmp.Compare(a.UserID, b.UserID) })
	return acl
}
