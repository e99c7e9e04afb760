package modify

import (
	"errors"
	"maps"
	"slices"

	"github.com/fbuehrmann/netxms/pkg/nxcpbuf"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

var (
	// ErrConsumed is returned by Build on a Modification that already
	// produced a message.
	ErrConsumed = errors.New("modify: modification already built")

	// ErrNothingModified is returned by Build when no setter was called.
	ErrNothingModified = errors.New("modify: no fields modified")
)

type fieldEncoder struct {
	flag   Flags
	encode func(m *Modification, msg *protocol.Message)
}

// encoders is ordered by flag value, which fixes the field order of the
// built message.
var encoders = []fieldEncoder{
	{FlagName, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagObjectName, m.name)
	}},
	{FlagACL, encodeACL},
	{FlagCustomAttributes, encodeCustomAttributes},
	{FlagAutoApply, func(m *Modification, msg *protocol.Message) {
		msg.SetBool(protocol.TagAutoApplyEnabled, m.autoApplyEnabled)
		msg.SetString(protocol.TagAutoApplyFilter, m.autoApplyFilter)
	}},
	{FlagAutoBind, func(m *Modification, msg *protocol.Message) {
		msg.SetBool(protocol.TagAutoBindEnabled, m.autoBindEnabled)
		msg.SetString(protocol.TagAutoBindFilter, m.autoBindFilter)
	}},
	{FlagPolicyConfig, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagPolicyConfig, m.policyConfig)
	}},
	{FlagVersion, func(m *Modification, msg *protocol.Message) {
		msg.SetUint32(protocol.TagVersion, m.version)
	}},
	{FlagDescription, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagDescription, m.description)
	}},
	{FlagAgentPort, func(m *Modification, msg *protocol.Message) {
		msg.SetUint32(protocol.TagAgentPort, uint32(m.agentPort))
	}},
	{FlagAgentAuth, func(m *Modification, msg *protocol.Message) {
		msg.SetInt16(protocol.TagAgentAuthMethod, m.agentAuthMethod)
		msg.SetString(protocol.TagAgentSecret, m.agentSecret)
	}},
	{FlagSNMPVersion, func(m *Modification, msg *protocol.Message) {
		msg.SetInt16(protocol.TagSNMPVersion, m.snmpVersion)
	}},
	{FlagSNMPAuth, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagSNMPAuthName, m.snmpAuthName)
		msg.SetString(protocol.TagSNMPAuthPassword, m.snmpAuthPassword)
		msg.SetString(protocol.TagSNMPPrivPassword, m.snmpPrivPassword)
		msg.SetInt16(protocol.TagSNMPAuthMethod, m.snmpAuthMethod)
		msg.SetInt16(protocol.TagSNMPPrivMethod, m.snmpPrivMethod)
	}},
	{FlagAgentProxy, func(m *Modification, msg *protocol.Message) {
		msg.SetUint64(protocol.TagAgentProxy, m.agentProxy)
	}},
	{FlagSNMPProxy, func(m *Modification, msg *protocol.Message) {
		msg.SetUint64(protocol.TagSNMPProxy, m.snmpProxy)
	}},
	{FlagTrustedNodes, func(m *Modification, msg *protocol.Message) {
		msg.SetUint32(protocol.TagTrustedNodeCount, uint32(len(m.trustedNodes)))
		for i, id := range m.trustedNodes {
			msg.SetUint64(protocol.TagTrustedNodeBase+uint32(i), id)
		}
	}},
	{FlagGeolocation, func(m *Modification, msg *protocol.Message) {
		msg.SetInt16(protocol.TagGeoType, int16(m.geolocation.Type))
		msg.SetFloat64(protocol.TagLatitude, m.geolocation.Latitude)
		msg.SetFloat64(protocol.TagLongitude, m.geolocation.Longitude)
	}},
	{FlagPrimaryIP, func(m *Modification, msg *protocol.Message) {
		msg.SetInetAddress(protocol.TagIPAddress, m.primaryIP)
	}},
	{FlagSNMPPort, func(m *Modification, msg *protocol.Message) {
		msg.SetUint32(protocol.TagSNMPPort, uint32(m.snmpPort))
	}},
	{FlagMapLayout, func(m *Modification, msg *protocol.Message) {
		msg.SetInt16(protocol.TagMapLayout, m.mapLayout)
	}},
	{FlagMapBackground, func(m *Modification, msg *protocol.Message) {
		msg.SetUUID(protocol.TagMapBackground, m.mapBackground)
		msg.SetFloat64(protocol.TagMapBackgroundLat, m.mapBackgroundGeo.Latitude)
		msg.SetFloat64(protocol.TagMapBackgroundLon, m.mapBackgroundGeo.Longitude)
		msg.SetInt32(protocol.TagMapBackgroundZoom, m.mapBackgroundZoom)
	}},
	{FlagMapContent, encodeMapContent},
	{FlagImage, func(m *Modification, msg *protocol.Message) {
		msg.SetUUID(protocol.TagImage, m.image)
	}},
	{FlagICMPProxy, func(m *Modification, msg *protocol.Message) {
		msg.SetUint64(protocol.TagICMPProxy, m.icmpProxy)
	}},
	{FlagScript, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagScript, m.script)
	}},
	{FlagNodeFlags, func(m *Modification, msg *protocol.Message) {
		msg.SetUint32(protocol.TagNodeFlags, m.nodeFlags)
	}},
	{FlagReportDefinition, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagReportDefinition, m.reportDefinition)
	}},
	{FlagPrimaryName, func(m *Modification, msg *protocol.Message) {
		msg.SetString(protocol.TagPrimaryName, m.primaryName)
	}},
	{FlagStatusCalculation, encodeStatusCalculation},
}

// Build encodes the modification as a CMD_MODIFY_OBJECT request. Only
// fields belonging to dirty groups are emitted, besides the object id
// and the flag mask. A Modification can be built once.
func (m *Modification) Build(requestID uint32) (*protocol.Message, error) {
	if m.consumed {
		return nil, ErrConsumed
	}
	if m.flags == 0 {
		return nil, ErrNothingModified
	}
	m.consumed = true

	msg := protocol.NewMessage(protocol.CmdModifyObject, requestID)
	msg.SetUint64(protocol.TagObjectID, m.objectID)
	msg.SetUint64(protocol.TagModifyFlags, uint64(m.flags))
	for _, e := range encoders {
		if m.flags&e.flag != 0 {
			e.encode(m, msg)
		}
	}
	return msg, nil
}

func encodeACL(m *Modification, msg *protocol.Message) {
	msg.SetBool(protocol.TagInheritRights, m.inheritRights)
	msg.SetUint32(protocol.TagACLSize, uint32(len(m.acl)))
	for i, e := range m.acl {
		msg.SetUint32(protocol.TagACLUserBase+uint32(i), e.UserID)
		msg.SetUint32(protocol.TagACLRightsBase+uint32(i), e.Rights)
	}
}

func encodeCustomAttributes(m *Modification, msg *protocol.Message) {
	names := slices.Sorted(maps.Keys(m.customAttributes))
	msg.SetUint32(protocol.TagCustomAttrCount, uint32(len(names)))
	tag := protocol.TagCustomAttrBase
	for _, name := range names {
		msg.SetString(tag, name)
		msg.SetString(tag+1, m.customAttributes[name])
		tag += 2
	}
}

func encodeMapContent(m *Modification, msg *protocol.Message) {
	msg.SetUint32(protocol.TagMapElementCount, uint32(len(m.mapElements)))
	tag := protocol.TagMapElementBase
	for _, e := range m.mapElements {
		msg.SetUint32(tag, e.ID)
		msg.SetInt16(tag+1, e.Type)
		msg.SetUint64(tag+2, e.ObjectID)
		msg.SetInt32(tag+3, e.X)
		msg.SetInt32(tag+4, e.Y)
		tag += mapTagStride
	}
	msg.SetUint32(protocol.TagMapLinkCount, uint32(len(m.mapLinks)))
	tag = protocol.TagMapLinkBase
	for _, l := range m.mapLinks {
		msg.SetUint32(tag, l.Element1)
		msg.SetUint32(tag+1, l.Element2)
		msg.SetInt16(tag+2, l.Type)
		msg.SetString(tag+3, l.Name)
		tag += mapTagStride
	}
}

func encodeStatusCalculation(m *Modification, msg *protocol.Message) {
	sc := m.statusCalc
	msg.SetInt16(protocol.TagStatusCalcAlg, sc.CalculationAlgorithm)
	msg.SetInt16(protocol.TagStatusPropAlg, sc.PropagationAlgorithm)
	msg.SetInt16(protocol.TagFixedStatus, sc.FixedStatus)
	msg.SetInt16(protocol.TagStatusShift, sc.Shift)
	msg.SetBinary(protocol.TagStatusTranslation, int16Block(sc.Translation))
	msg.SetInt16(protocol.TagStatusSingleThreshold, sc.SingleThreshold)
	msg.SetBinary(protocol.TagStatusThresholds, int16Block(sc.Thresholds))
}

// int16Block packs four values as consecutive big-endian 16-bit words.
func int16Block(v [4]int16) []byte {
	b := nxcpbuf.NewBuffer(8)
	for _, x := range v {
		b.WriteUint16(uint16(x))
	}
	return b.Bytes()
}
