package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want Endpoint
	}{
		{"tcp://nms.example.com:4701", Endpoint{"tcp", "nms.example.com:4701"}},
		{"nms.example.com:9000", Endpoint{"tcp", "nms.example.com:9000"}},
		{"nms.example.com", Endpoint{"tcp", "nms.example.com:4701"}},
		{"::1", Endpoint{"tcp", "[::1]:4701"}},
		{"[::1]:1234", Endpoint{"tcp", "[::1]:1234"}},
		{"unix:///run/netxms/client.sock", Endpoint{"unix", "/run/netxms/client.sock"}},
		{"/run/netxms/client.sock", Endpoint{"unix", "/run/netxms/client.sock"}},
		{"pipe://nxagentd.subagent.test", Endpoint{"pipe", "nxagentd.subagent.test"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEndpoint(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseEndpointErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "tcp://", "http://nms:80", "pipe://", "pipe://a/b", "unix://", ":4701"} {
		_, err := ParseEndpoint(in)
		assert.Error(t, err, "input %q", in)
	}
	_, err := ParseEndpoint("")
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestEndpointString(t *testing.T) {
	ep, err := ParseEndpoint("nms:1")
	require.NoError(t, err)
	assert.Equal(t, "tcp://nms:1", ep.String())

	d, err := NewDialer("pipe://x", 0)
	require.NoError(t, err)
	assert.Equal(t, "pipe://x", d.String())
}
