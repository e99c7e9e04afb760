package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbuehrmann/netxms/internal/fakeserver"
	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/protocol"
)

var tree = []fakeserver.Object{
	{ID: 1, Name: "Entire Network", Class: objects.ClassNetwork, Children: []uint64{2, 3}},
	{ID: 2, Name: "dc-east", Class: objects.ClassContainer, Parents: []uint64{1}, Children: []uint64{4}},
	{ID: 3, Name: "dc-west", Class: objects.ClassContainer, Parents: []uint64{1}},
	{ID: 4, Name: "core-sw", Class: objects.ClassNode, Parents: []uint64{2},
		CustomAttributes: map[string]string{"rack": "4"}},
}

// syncBuffer is a bytes.Buffer safe for the watch command's writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newServer(t *testing.T) *fakeserver.Server {
	t.Helper()
	srv, err := fakeserver.New(tree...)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

// baseArgs points the command at a config file that does not exist so the
// developer's own ~/.nxctl never leaks into tests.
func baseArgs(t *testing.T, args ...string) []string {
	t.Helper()
	return append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "error"}, args...)
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	root := NewRootCmd()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(baseArgs(t, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nxctl version")
	assert.Contains(t, out, "NXCP version: 5")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := executeCommand(t, "-o", "xml", "version")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestGetCommand(t *testing.T) {
	srv := newServer(t)
	out, err := executeCommand(t, "--server", srv.Endpoint(), "get", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "core-sw")
	assert.Contains(t, out, "node")
	assert.Contains(t, out, "PARENTS:")
}

func TestGetJSON(t *testing.T) {
	srv := newServer(t)
	out, err := executeCommand(t, "--server", srv.Endpoint(), "-o", "json", "get", "2")
	require.NoError(t, err)

	var o objects.Object
	require.NoError(t, json.Unmarshal([]byte(out), &o))
	assert.Equal(t, "dc-east", o.Name)
	assert.True(t, o.HasChild(4))
}

func TestGetErrors(t *testing.T) {
	srv := newServer(t)

	_, err := executeCommand(t, "--server", srv.Endpoint(), "get", "99")
	assert.ErrorContains(t, err, "object 99 not found")

	_, err = executeCommand(t, "get", "abc")
	assert.ErrorContains(t, err, "invalid object id")

	_, err = executeCommand(t, "get")
	assert.Error(t, err)
}

func TestDescendantsCommand(t *testing.T) {
	srv := newServer(t)

	out, err := executeCommand(t, "--server", srv.Endpoint(), "descendants", "1")
	require.NoError(t, err)
	for _, name := range []string{"dc-east", "dc-west", "core-sw"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "Entire Network")

	out, err = executeCommand(t, "--server", srv.Endpoint(), "descendants", "1", "--class", "node")
	require.NoError(t, err)
	assert.Contains(t, out, "core-sw")
	assert.NotContains(t, out, "dc-west")

	out, err = executeCommand(t, "--server", srv.Endpoint(), "descendants", "3")
	require.NoError(t, err)
	assert.Equal(t, "No resources found.\n", out)

	_, err = executeCommand(t, "--server", srv.Endpoint(), "descendants", "1", "--class", "spaceship")
	assert.Error(t, err)
}

func TestModifyDryRun(t *testing.T) {
	out, err := executeCommand(t, "modify", "4", "--name", "core-sw-01", "--attr", "row=B", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "(dry-run) would modify object 4: NAME|CUSTOM_ATTRIBUTES\n", out)

	out, err = executeCommand(t, "modify", "4", "--inherit-acl=false", "--geo", "52.52,13.40", "--snmp-version", "v2c", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "ACL")
	assert.Contains(t, out, "SNMP_VERSION")
	assert.Contains(t, out, "GEOLOCATION")
}

func TestModifyNothing(t *testing.T) {
	_, err := executeCommand(t, "modify", "4", "--dry-run")
	assert.ErrorContains(t, err, "nothing to modify")
}

func TestModifyInvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--acl", "admin:all"},
		{"--attr", "novalue"},
		{"--geo", "91,0"},
		{"--geo", "52.5"},
		{"--snmp-version", "v4"},
	} {
		_, err := executeCommand(t, append([]string{"modify", "4", "--dry-run"}, args...)...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestModifyReportFileMissing(t *testing.T) {
	_, err := executeCommand(t, "modify", "4", "--dry-run", "--report-file", filepath.Join(t.TempDir(), "missing.xml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestModifyMergesAttributes(t *testing.T) {
	srv := newServer(t)

	out, err := executeCommand(t, "--server", srv.Endpoint(), "modify", "4", "--name", "core-sw-01", "--attr", "row=B")
	require.NoError(t, err)
	assert.Contains(t, out, "core-sw-01")

	o, ok := srv.Object(4)
	require.True(t, ok)
	assert.Equal(t, "core-sw-01", o.Name)
	assert.Equal(t, map[string]string{"rack": "4", "row": "B"}, o.CustomAttributes)

	reqs := srv.Requests(protocol.CmdModifyObject)
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].Has(protocol.TagDescription))
}

func TestModifyRejected(t *testing.T) {
	srv := newServer(t)
	srv.SetRCC(protocol.CmdModifyObject, protocol.RCCAccessDenied)

	_, err := executeCommand(t, "--server", srv.Endpoint(), "modify", "4", "--name", "x")
	assert.ErrorContains(t, err, "failed to modify object 4")
}

func TestWatchStreamsEvents(t *testing.T) {
	srv := newServer(t)

	out := &syncBuffer{}
	root := NewRootCmd()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(baseArgs(t, "--server", srv.Endpoint(), "watch"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	update := protocol.NewMessage(protocol.CmdObjectUpdate, 0)
	update.SetUint64(protocol.TagObjectID, 3)
	update.SetString(protocol.TagObjectName, "dc-west-renamed")

	// The subscription starts after the initial sync; keep pushing until
	// an update is seen.
	assert.Eventually(t, func() bool {
		srv.Push(update)
		return strings.Contains(out.String(), "dc-west-renamed")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, out.String(), "updated")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
