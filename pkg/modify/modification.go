package modify

import (
	"maps"
	"net/netip"
	"slices"

	"github.com/google/uuid"
	"github.com/gosnmp/gosnmp"

	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

// Modification collects changes to one object. Each setter marks exactly
// one dirty bit; setters that the server applies as a unit share a bit.
// A Modification is not safe for concurrent use and builds exactly once.
type Modification struct {
	objectID uint64
	flags    Flags
	consumed bool

	name        string
	primaryName string
	description string

	acl           []objects.AccessEntry
	inheritRights bool

	customAttributes map[string]string

	autoApplyEnabled bool
	autoApplyFilter  string
	autoBindEnabled  bool
	autoBindFilter   string

	policyConfig string
	version      uint32

	agentPort       uint16
	agentAuthMethod int16
	agentSecret     string
	agentProxy      uint64

	snmpVersion      int16
	snmpAuthName     string
	snmpAuthPassword string
	snmpPrivPassword string
	snmpAuthMethod   int16
	snmpPrivMethod   int16
	snmpPort         uint16
	snmpProxy        uint64
	icmpProxy        uint64

	trustedNodes []uint64
	geolocation  objects.GeoLocation
	primaryIP    protocol.InetAddress

	mapLayout         int16
	mapBackground     uuid.UUID
	mapBackgroundGeo  objects.GeoLocation
	mapBackgroundZoom int32
	mapElements       []MapElement
	mapLinks          []MapLink

	image            uuid.UUID
	script           string
	nodeFlags        uint32
	reportDefinition string
	statusCalc       StatusCalculation
}

// New starts a modification of the object with the given id.
func New(objectID uint64) *Modification {
	return &Modification{objectID: objectID}
}

// ObjectID returns the id of the object being modified.
func (m *Modification) ObjectID() uint64 { return m.objectID }

// Flags returns the dirty-bit mask accumulated so far.
func (m *Modification) Flags() Flags { return m.flags }

// Consumed reports whether Build has already produced a message.
func (m *Modification) Consumed() bool { return m.consumed }

func (m *Modification) SetName(name string) {
	m.name = name
	m.flags |= FlagName
}

func (m *Modification) SetPrimaryName(name string) {
	m.primaryName = name
	m.flags |= FlagPrimaryName
}

func (m *Modification) SetDescription(description string) {
	m.description = description
	m.flags |= FlagDescription
}

// SetACL replaces the access list. The entries are copied.
func (m *Modification) SetACL(acl []objects.AccessEntry) {
	m.acl = slices.Clone(acl)
	m.flags |= FlagACL
}

// SetInheritAccessRights is sent together with the access list.
func (m *Modification) SetInheritAccessRights(inherit bool) {
	m.inheritRights = inherit
	m.flags |= FlagACL
}

// SetCustomAttributes replaces the full set of custom attributes.
func (m *Modification) SetCustomAttributes(attrs map[string]string) {
	m.customAttributes = maps.Clone(attrs)
	m.flags |= FlagCustomAttributes
}

func (m *Modification) SetAutoApplyEnabled(enabled bool) {
	m.autoApplyEnabled = enabled
	m.flags |= FlagAutoApply
}

func (m *Modification) SetAutoApplyFilter(filter string) {
	m.autoApplyFilter = filter
	m.flags |= FlagAutoApply
}

func (m *Modification) SetAutoBindEnabled(enabled bool) {
	m.autoBindEnabled = enabled
	m.flags |= FlagAutoBind
}

func (m *Modification) SetAutoBindFilter(filter string) {
	m.autoBindFilter = filter
	m.flags |= FlagAutoBind
}

func (m *Modification) SetPolicyConfig(config string) {
	m.policyConfig = config
	m.flags |= FlagPolicyConfig
}

// SetPolicyConfigFile loads the policy configuration from path. On error
// the modification is left unchanged.
func (m *Modification) SetPolicyConfigFile(path string) error {
	data, err := loadBlob("policy config", path)
	if err != nil {
		return err
	}
	m.SetPolicyConfig(data)
	return nil
}

func (m *Modification) SetVersion(version uint32) {
	m.version = version
	m.flags |= FlagVersion
}

func (m *Modification) SetAgentPort(port uint16) {
	m.agentPort = port
	m.flags |= FlagAgentPort
}

func (m *Modification) SetAgentAuthMethod(method int16) {
	m.agentAuthMethod = method
	m.flags |= FlagAgentAuth
}

func (m *Modification) SetAgentSecret(secret string) {
	m.agentSecret = secret
	m.flags |= FlagAgentAuth
}

// SetAgentProxy sets the proxy node for agent connections; 0 clears it.
func (m *Modification) SetAgentProxy(nodeID uint64) {
	m.agentProxy = nodeID
	m.flags |= FlagAgentProxy
}

// SetSNMPVersion fails for versions the server does not support.
func (m *Modification) SetSNMPVersion(v gosnmp.SnmpVersion) error {
	code, err := snmpVersionCode(v)
	if err != nil {
		return err
	}
	m.snmpVersion = code
	m.flags |= FlagSNMPVersion
	return nil
}

// SetSNMPAuthName sets the community string (v1/v2c) or user name (v3).
func (m *Modification) SetSNMPAuthName(name string) {
	m.snmpAuthName = name
	m.flags |= FlagSNMPAuth
}

func (m *Modification) SetSNMPAuthPassword(password string) {
	m.snmpAuthPassword = password
	m.flags |= FlagSNMPAuth
}

func (m *Modification) SetSNMPPrivPassword(password string) {
	m.snmpPrivPassword = password
	m.flags |= FlagSNMPAuth
}

func (m *Modification) SetSNMPAuthMethod(p gosnmp.SnmpV3AuthProtocol) error {
	code, err := snmpAuthCode(p)
	if err != nil {
		return err
	}
	m.snmpAuthMethod = code
	m.flags |= FlagSNMPAuth
	return nil
}

func (m *Modification) SetSNMPPrivMethod(p gosnmp.SnmpV3PrivProtocol) error {
	code, err := snmpPrivCode(p)
	if err != nil {
		return err
	}
	m.snmpPrivMethod = code
	m.flags |= FlagSNMPAuth
	return nil
}

func (m *Modification) SetSNMPPort(port uint16) {
	m.snmpPort = port
	m.flags |= FlagSNMPPort
}

func (m *Modification) SetSNMPProxy(nodeID uint64) {
	m.snmpProxy = nodeID
	m.flags |= FlagSNMPProxy
}

func (m *Modification) SetICMPProxy(nodeID uint64) {
	m.icmpProxy = nodeID
	m.flags |= FlagICMPProxy
}

// SetTrustedNodes replaces the trusted node list. Ids are sent sorted.
func (m *Modification) SetTrustedNodes(ids []uint64) {
	m.trustedNodes = slices.Clone(ids)
	slices.Sort(m.trustedNodes)
	m.flags |= FlagTrustedNodes
}

func (m *Modification) SetGeolocation(loc objects.GeoLocation) {
	m.geolocation = loc
	m.flags |= FlagGeolocation
}

func (m *Modification) SetPrimaryIP(addr netip.Addr) {
	m.primaryIP = protocol.HostAddress(addr)
	m.flags |= FlagPrimaryIP
}

func (m *Modification) SetMapLayout(layout int16) {
	m.mapLayout = layout
	m.flags |= FlagMapLayout
}

// SetMapBackground sets the background image; uuid.Nil removes it.
func (m *Modification) SetMapBackground(image uuid.UUID) {
	m.mapBackground = image
	m.flags |= FlagMapBackground
}

// SetMapBackgroundLocation sets the geographic map center and zoom level.
func (m *Modification) SetMapBackgroundLocation(loc objects.GeoLocation, zoom int32) {
	m.mapBackgroundGeo = loc
	m.mapBackgroundZoom = zoom
	m.flags |= FlagMapBackground
}

// SetMapContent replaces all elements and links of a network map.
func (m *Modification) SetMapContent(elements []MapElement, links []MapLink) {
	m.mapElements = slices.Clone(elements)
	m.mapLinks = slices.Clone(links)
	m.flags |= FlagMapContent
}

// SetImage sets the object icon; uuid.Nil restores the default image.
func (m *Modification) SetImage(image uuid.UUID) {
	m.image = image
	m.flags |= FlagImage
}

func (m *Modification) SetScript(script string) {
	m.script = script
	m.flags |= FlagScript
}

func (m *Modification) SetNodeFlags(flags uint32) {
	m.nodeFlags = flags
	m.flags |= FlagNodeFlags
}

func (m *Modification) SetReportDefinition(definition string) {
	m.reportDefinition = definition
	m.flags |= FlagReportDefinition
}

// SetReportDefinitionFile loads the report definition from path. On error
// the modification is left unchanged.
func (m *Modification) SetReportDefinitionFile(path string) error {
	data, err := loadBlob("report definition", path)
	if err != nil {
		return err
	}
	m.SetReportDefinition(data)
	return nil
}

func (m *Modification) SetStatusCalculation(sc StatusCalculation) {
	m.statusCalc = sc
	m.flags |= FlagStatusCalculation
}
