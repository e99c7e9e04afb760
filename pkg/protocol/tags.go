package protocol

// Field tags. A tag is meaningful only together with the command code of
// the message that carries it; lists are laid out as consecutive tags
// starting at a base, with the element count in a separate field.
const (
	TagRCC              uint32 = 0x0001
	TagObjectID         uint32 = 0x0003
	TagObjectName       uint32 = 0x0004
	TagObjectClass      uint32 = 0x0005
	TagObjectStatus     uint32 = 0x0006
	TagIPAddress        uint32 = 0x0007
	TagParentCount      uint32 = 0x0008
	TagChildCount       uint32 = 0x0009
	TagIsDeleted        uint32 = 0x000A
	TagComments         uint32 = 0x000B
	TagGUID             uint32 = 0x000C
	TagImage            uint32 = 0x000D
	TagInheritRights    uint32 = 0x000E
	TagACLSize          uint32 = 0x000F
	TagCustomAttrCount  uint32 = 0x0010
	TagTrustedNodeCount uint32 = 0x0011
	TagPrimaryName      uint32 = 0x0012
	TagGeoType          uint32 = 0x0013
	TagLatitude         uint32 = 0x0014
	TagLongitude        uint32 = 0x0015
	TagSyncChildren     uint32 = 0x0016
	TagModifyFlags      uint32 = 0x0017
	TagDescription      uint32 = 0x0018

	TagAutoApplyEnabled  uint32 = 0x0020
	TagAutoApplyFilter   uint32 = 0x0021
	TagAutoBindEnabled   uint32 = 0x0022
	TagAutoBindFilter    uint32 = 0x0023
	TagPolicyConfig      uint32 = 0x0024
	TagVersion           uint32 = 0x0025
	TagAgentPort         uint32 = 0x0026
	TagAgentAuthMethod   uint32 = 0x0027
	TagAgentSecret       uint32 = 0x0028
	TagAgentProxy        uint32 = 0x0029
	TagSNMPVersion       uint32 = 0x002A
	TagSNMPAuthName      uint32 = 0x002B
	TagSNMPAuthPassword  uint32 = 0x002C
	TagSNMPPrivPassword  uint32 = 0x002D
	TagSNMPAuthMethod    uint32 = 0x002E
	TagSNMPPrivMethod    uint32 = 0x002F
	TagSNMPPort          uint32 = 0x0030
	TagSNMPProxy         uint32 = 0x0031
	TagICMPProxy         uint32 = 0x0032
	TagMapLayout         uint32 = 0x0033
	TagMapBackground     uint32 = 0x0034
	TagMapBackgroundLat  uint32 = 0x0035
	TagMapBackgroundLon  uint32 = 0x0036
	TagMapBackgroundZoom uint32 = 0x0037
	TagMapElementCount   uint32 = 0x0038
	TagMapLinkCount      uint32 = 0x0039
	TagScript            uint32 = 0x003A
	TagNodeFlags         uint32 = 0x003B
	TagReportDefinition  uint32 = 0x003C

	TagStatusCalcAlg         uint32 = 0x0040
	TagStatusPropAlg         uint32 = 0x0041
	TagFixedStatus           uint32 = 0x0042
	TagStatusShift           uint32 = 0x0043
	TagStatusTranslation     uint32 = 0x0044
	TagStatusSingleThreshold uint32 = 0x0045
	TagStatusThresholds      uint32 = 0x0046

	TagNXCPVersion          uint32 = 0x0060
	TagMaxFrameSize         uint32 = 0x0061
	TagCompressionSupported uint32 = 0x0062
)

// List base tags.
const (
	TagParentIDBase    uint32 = 0x10000000
	TagChildIDBase     uint32 = 0x20000000
	TagTrustedNodeBase uint32 = 0x30000000
	TagCustomAttrBase  uint32 = 0x40000000 // name, value pairs
	TagACLUserBase     uint32 = 0x50000000
	TagACLRightsBase   uint32 = 0x58000000
	TagMapElementBase  uint32 = 0x60000000 // 8 tags per element
	TagMapLinkBase     uint32 = 0x68000000 // 8 tags per link
)

// MaxListEntries bounds element counts read from a message so a corrupt or
// hostile count cannot drive allocation.
const MaxListEntries = 65536
