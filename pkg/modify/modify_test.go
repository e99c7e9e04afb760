package modify

import (
	"errors"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

func tagsOf(msg *protocol.Message) []uint32 {
	var tags []uint32
	for _, f := range msg.Fields() {
		tags = append(tags, f.Tag)
	}
	return tags
}

// ---------------------------------------------------------------------------
// Sparse encoding
// ---------------------------------------------------------------------------

func TestBuildNameAndACLOnly(t *testing.T) {
	m := New(42)
	m.SetName("core-sw")
	m.SetACL([]objects.AccessEntry{{UserID: 1, Rights: 0xFF}, {UserID: 7, Rights: 0x3}})

	msg, err := m.Build(9)
	require.NoError(t, err)

	assert.Equal(t, protocol.CmdModifyObject, msg.Code)
	assert.Equal(t, uint32(9), msg.ID)
	assert.Equal(t, []uint32{
		protocol.TagObjectID,
		protocol.TagModifyFlags,
		protocol.TagObjectName,
		protocol.TagInheritRights,
		protocol.TagACLSize,
		protocol.TagACLUserBase, protocol.TagACLRightsBase,
		protocol.TagACLUserBase + 1, protocol.TagACLRightsBase + 1,
	}, tagsOf(msg))

	assert.Equal(t, uint64(42), msg.GetUint64(protocol.TagObjectID))
	assert.Equal(t, uint64(FlagName|FlagACL), msg.GetUint64(protocol.TagModifyFlags))
	assert.Equal(t, "core-sw", msg.GetString(protocol.TagObjectName))
	assert.False(t, msg.GetBool(protocol.TagInheritRights))
	assert.Equal(t, uint32(2), msg.GetUint32(protocol.TagACLSize))
	assert.Equal(t, uint32(7), msg.GetUint32(protocol.TagACLUserBase+1))
	assert.Equal(t, uint32(3), msg.GetUint32(protocol.TagACLRightsBase+1))
}

func TestUnsetFieldsAreNeverSent(t *testing.T) {
	m := New(1)
	m.SetDescription("rack 4")

	msg, err := m.Build(1)
	require.NoError(t, err)
	assert.Equal(t, 3, msg.Len())
	assert.False(t, msg.Has(protocol.TagObjectName))
	assert.False(t, msg.Has(protocol.TagACLSize))
	assert.Equal(t, "rack 4", msg.GetString(protocol.TagDescription))
}

func TestSharedBitEmitsWholeGroup(t *testing.T) {
	m := New(5)
	m.SetAutoApplyFilter("return $node->isAgent;")
	assert.Equal(t, FlagAutoApply, m.Flags())

	msg, err := m.Build(1)
	require.NoError(t, err)
	require.True(t, msg.Has(protocol.TagAutoApplyEnabled))
	assert.False(t, msg.GetBool(protocol.TagAutoApplyEnabled))
	assert.Equal(t, "return $node->isAgent;", msg.GetString(protocol.TagAutoApplyFilter))
	assert.False(t, msg.Has(protocol.TagAutoBindEnabled))
}

func TestInheritFlagSharesACLBit(t *testing.T) {
	m := New(5)
	m.SetInheritAccessRights(true)
	assert.Equal(t, FlagACL, m.Flags())

	msg, err := m.Build(1)
	require.NoError(t, err)
	assert.True(t, msg.GetBool(protocol.TagInheritRights))
	assert.Equal(t, uint32(0), msg.GetUint32(protocol.TagACLSize))
	assert.True(t, msg.Has(protocol.TagACLSize))
}

func TestSNMPAuthBundleDefaults(t *testing.T) {
	m := New(3)
	m.SetSNMPAuthName("public")

	msg, err := m.Build(1)
	require.NoError(t, err)
	for _, tag := range []uint32{
		protocol.TagSNMPAuthName,
		protocol.TagSNMPAuthPassword,
		protocol.TagSNMPPrivPassword,
		protocol.TagSNMPAuthMethod,
		protocol.TagSNMPPrivMethod,
	} {
		assert.True(t, msg.Has(tag), "tag 0x%X", tag)
	}
	assert.Equal(t, "public", msg.GetString(protocol.TagSNMPAuthName))
	assert.Equal(t, "", msg.GetString(protocol.TagSNMPAuthPassword))
	assert.Equal(t, int16(0), msg.GetInt16(protocol.TagSNMPAuthMethod))
	assert.False(t, msg.Has(protocol.TagSNMPVersion))
}

func TestFieldOrderIsStable(t *testing.T) {
	build := func(reverse bool) []uint32 {
		m := New(1)
		if reverse {
			m.SetStatusCalculation(StatusCalculation{})
			m.SetImage(uuid.Nil)
			m.SetName("x")
		} else {
			m.SetName("x")
			m.SetImage(uuid.Nil)
			m.SetStatusCalculation(StatusCalculation{})
		}
		msg, err := m.Build(1)
		require.NoError(t, err)
		return tagsOf(msg)
	}
	assert.Equal(t, build(false), build(true))
}

func TestEncodersCoverEveryFlag(t *testing.T) {
	var prev Flags
	for _, e := range encoders {
		assert.Greater(t, e.flag, prev, "encoders must be ordered by flag")
		_, named := flagNames[e.flag]
		assert.True(t, named, "flag 0x%X has no name", uint64(e.flag))
		prev = e.flag
	}
	assert.Len(t, encoders, len(flagNames))
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestBuildOnce(t *testing.T) {
	m := New(1)
	m.SetName("a")
	_, err := m.Build(1)
	require.NoError(t, err)
	assert.True(t, m.Consumed())

	_, err = m.Build(2)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestBuildNothingModified(t *testing.T) {
	m := New(1)
	_, err := m.Build(1)
	assert.ErrorIs(t, err, ErrNothingModified)
	assert.False(t, m.Consumed())
}

func TestSettersCopyInput(t *testing.T) {
	attrs := map[string]string{"rack": "4"}
	nodes := []uint64{30, 10, 20}

	m := New(1)
	m.SetCustomAttributes(attrs)
	m.SetTrustedNodes(nodes)
	attrs["rack"] = "5"
	nodes[0] = 99

	msg, err := m.Build(1)
	require.NoError(t, err)
	assert.Equal(t, "rack", msg.GetString(protocol.TagCustomAttrBase))
	assert.Equal(t, "4", msg.GetString(protocol.TagCustomAttrBase+1))
	assert.Equal(t, uint32(3), msg.GetUint32(protocol.TagTrustedNodeCount))
	assert.Equal(t, uint64(10), msg.GetUint64(protocol.TagTrustedNodeBase))
	assert.Equal(t, uint64(30), msg.GetUint64(protocol.TagTrustedNodeBase+2))
}

func TestCustomAttributesSortedByName(t *testing.T) {
	m := New(1)
	m.SetCustomAttributes(map[string]string{"zone": "b", "owner": "ops", "cost": "12"})
	msg, err := m.Build(1)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), msg.GetUint32(protocol.TagCustomAttrCount))
	assert.Equal(t, "cost", msg.GetString(protocol.TagCustomAttrBase))
	assert.Equal(t, "owner", msg.GetString(protocol.TagCustomAttrBase+2))
	assert.Equal(t, "zone", msg.GetString(protocol.TagCustomAttrBase+4))
	assert.Equal(t, "b", msg.GetString(protocol.TagCustomAttrBase+5))
}

// ---------------------------------------------------------------------------
// Composite fields
// ---------------------------------------------------------------------------

func TestMapContent(t *testing.T) {
	m := New(77)
	m.SetMapContent(
		[]MapElement{{ID: 1, Type: 1, ObjectID: 100, X: 10, Y: 20}, {ID: 2, Type: 1, ObjectID: 200, X: -5, Y: 0}},
		[]MapLink{{Element1: 1, Element2: 2, Type: 0, Name: "uplink"}},
	)
	msg, err := m.Build(1)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), msg.GetUint32(protocol.TagMapElementCount))
	second := protocol.TagMapElementBase + mapTagStride
	assert.Equal(t, uint32(2), msg.GetUint32(second))
	assert.Equal(t, uint64(200), msg.GetUint64(second+2))
	assert.Equal(t, int32(-5), msg.GetInt32(second+3))

	assert.Equal(t, uint32(1), msg.GetUint32(protocol.TagMapLinkCount))
	assert.Equal(t, uint32(2), msg.GetUint32(protocol.TagMapLinkBase+1))
	assert.Equal(t, "uplink", msg.GetString(protocol.TagMapLinkBase+3))
}

func TestMapBackgroundGroup(t *testing.T) {
	m := New(77)
	m.SetMapBackgroundLocation(objects.GeoLocation{Latitude: 56.95, Longitude: 24.1}, 12)
	msg, err := m.Build(1)
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, msg.GetUUID(protocol.TagMapBackground))
	assert.InDelta(t, 56.95, msg.GetFloat64(protocol.TagMapBackgroundLat), 1e-9)
	assert.Equal(t, int32(12), msg.GetInt32(protocol.TagMapBackgroundZoom))
}

func TestStatusCalculation(t *testing.T) {
	m := New(8)
	m.SetStatusCalculation(StatusCalculation{
		CalculationAlgorithm: 2,
		FixedStatus:          3,
		Translation:          [4]int16{1, 2, 3, 4},
		SingleThreshold:      75,
		Thresholds:           [4]int16{80, 70, 60, 50},
	})
	msg, err := m.Build(1)
	require.NoError(t, err)

	assert.Equal(t, int16(2), msg.GetInt16(protocol.TagStatusCalcAlg))
	assert.Equal(t, int16(0), msg.GetInt16(protocol.TagStatusPropAlg))
	assert.Equal(t, []byte{0, 1, 0, 2, 0, 3, 0, 4}, msg.GetBinary(protocol.TagStatusTranslation))
	assert.Equal(t, []byte{0, 80, 0, 70, 0, 60, 0, 50}, msg.GetBinary(protocol.TagStatusThresholds))
}

func TestPrimaryIPAndGeolocation(t *testing.T) {
	m := New(8)
	m.SetPrimaryIP(netip.MustParseAddr("10.0.0.1"))
	m.SetGeolocation(objects.GeoLocation{Type: objects.GeoManual, Latitude: 1.5, Longitude: -2.25})
	msg, err := m.Build(1)
	require.NoError(t, err)

	addr := msg.GetInetAddress(protocol.TagIPAddress)
	assert.Equal(t, "10.0.0.1", addr.Addr.String())
	assert.Equal(t, uint8(32), addr.Bits)
	assert.Equal(t, int16(objects.GeoManual), msg.GetInt16(protocol.TagGeoType))
	assert.InDelta(t, -2.25, msg.GetFloat64(protocol.TagLongitude), 1e-9)
}

func TestBuiltMessageSurvivesCodec(t *testing.T) {
	m := New(1234)
	m.SetName("edge-router")
	m.SetAgentPort(4700)
	m.SetSNMPPort(161)
	m.SetImage(uuid.MustParse("9a2c2b3c-3c0f-4b8e-9a11-2c0c1d3d4e5f"))
	m.SetNodeFlags(0x10)

	msg, err := m.Build(3)
	require.NoError(t, err)

	c := protocol.DefaultCodec()
	frame, err := c.Encode(msg)
	require.NoError(t, err)
	got, err := c.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, tagsOf(msg), tagsOf(got))
	assert.Equal(t, uint32(4700), got.GetUint32(protocol.TagAgentPort))
	assert.Equal(t, uint64(1234), got.GetUint64(protocol.TagObjectID))
}

// ---------------------------------------------------------------------------
// SNMP mapping
// ---------------------------------------------------------------------------

func TestSNMPVersionCodes(t *testing.T) {
	tests := []struct {
		in   gosnmp.SnmpVersion
		want int16
	}{
		{gosnmp.Version1, 0},
		{gosnmp.Version2c, 1},
		{gosnmp.Version3, 3},
	}
	for _, tt := range tests {
		m := New(1)
		require.NoError(t, m.SetSNMPVersion(tt.in))
		msg, err := m.Build(1)
		require.NoError(t, err)
		assert.Equal(t, tt.want, msg.GetInt16(protocol.TagSNMPVersion), tt.in.String())
	}
}

func TestSNMPUnsupportedVersionLeavesBitClear(t *testing.T) {
	m := New(1)
	err := m.SetSNMPVersion(gosnmp.SnmpVersion(2))
	var unsupported *UnsupportedSNMPError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, Flags(0), m.Flags())
}

func TestSNMPProtocolCodes(t *testing.T) {
	auth := map[gosnmp.SnmpV3AuthProtocol]int16{
		gosnmp.NoAuth: 0, gosnmp.MD5: 1, gosnmp.SHA: 2, gosnmp.SHA224: 3,
		gosnmp.SHA256: 4, gosnmp.SHA384: 5, gosnmp.SHA512: 6,
	}
	for p, want := range auth {
		got, err := snmpAuthCode(p)
		require.NoError(t, err)
		assert.Equal(t, want, got, p.String())
	}

	priv := map[gosnmp.SnmpV3PrivProtocol]int16{
		gosnmp.NoPriv: 0, gosnmp.DES: 1, gosnmp.AES: 2, gosnmp.AES192: 3,
		gosnmp.AES256: 4, gosnmp.AES192C: 3, gosnmp.AES256C: 4,
	}
	for p, want := range priv {
		got, err := snmpPrivCode(p)
		require.NoError(t, err)
		assert.Equal(t, want, got, p.String())
	}
}

func TestParseSNMP(t *testing.T) {
	v, err := ParseSNMPVersion("2c")
	require.NoError(t, err)
	assert.Equal(t, gosnmp.Version2c, v)

	a, err := ParseSNMPAuthProtocol("SHA256")
	require.NoError(t, err)
	assert.Equal(t, gosnmp.SHA256, a)

	p, err := ParseSNMPPrivProtocol("aes192c")
	require.NoError(t, err)
	assert.Equal(t, gosnmp.AES192C, p)

	_, err = ParseSNMPVersion("4")
	assert.Error(t, err)
	_, err = ParseSNMPPrivProtocol("3des")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Blobs
// ---------------------------------------------------------------------------

func TestReportDefinitionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.jrxml")
	require.NoError(t, os.WriteFile(path, []byte("<jasperReport/>"), 0o600))

	m := New(1)
	require.NoError(t, m.SetReportDefinitionFile(path))
	msg, err := m.Build(1)
	require.NoError(t, err)
	assert.Equal(t, "<jasperReport/>", msg.GetString(protocol.TagReportDefinition))
}

func TestBlobLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.xml")

	m := New(1)
	err := m.SetPolicyConfigFile(path)
	var blobErr *BlobLoadError
	require.ErrorAs(t, err, &blobErr)
	assert.Equal(t, path, blobErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, Flags(0), m.Flags())
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "NONE", Flags(0).String())
	assert.Equal(t, "NAME|ACL", (FlagName | FlagACL).String())
	assert.Equal(t, "SNMP_AUTH|0x800000", (FlagSNMPAuth | Flags(0x800000)).String())
	assert.Equal(t, 2, (FlagName | FlagStatusCalculation).Count())
	assert.True(t, (FlagName | FlagACL).Has(FlagACL))
	assert.False(t, FlagName.Has(0))
}
