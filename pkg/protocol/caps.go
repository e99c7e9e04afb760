package protocol

// ProtocolVersion is the NXCP revision this client implements.
const ProtocolVersion = 5

// CapsReply answers a CMD_GET_NXCP_CAPS request with the capabilities of c.
func (c Codec) CapsReply(req *Message) *Message {
	reply := NewReply(req, CmdNXCPCaps)
	reply.SetUint32(TagNXCPVersion, ProtocolVersion)
	reply.SetUint32(TagMaxFrameSize, uint32(max(c.MaxFrameSize, 0)))
	reply.SetBool(TagCompressionSupported, true)
	return reply
}

// Negotiate returns the codec to use for frames sent to a peer that
// advertised its capabilities in peer. The frame limit shrinks to the
// peer's when smaller; compression is turned off when the peer cannot
// inflate.
func (c Codec) Negotiate(peer *Message) Codec {
	if limit := int(peer.GetUint32(TagMaxFrameSize)); limit > 0 && (c.MaxFrameSize == 0 || limit < c.MaxFrameSize) {
		c.MaxFrameSize = limit
	}
	if peer.Has(TagCompressionSupported) && !peer.GetBool(TagCompressionSupported) {
		c.CompressThreshold = 0
	}
	return c
}
