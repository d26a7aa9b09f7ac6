package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileSystemMCP/internal/providers/system"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

func newTestServer(t *testing.T) (*Server, *filesystem.Memory, *monitoring.Metrics) {
	t.Helper()
	mem := filesystem.NewMemory()
	require.NoError(t, mem.MkdirAll("/work"))

	metrics := monitoring.NewMetrics()
	registry := service.NewRegistry().WithMetrics(metrics)
	require.NoError(t, registry.Register(filesystem.NewProvider(mem, nil)))
	require.NoError(t, registry.Register(system.NewProvider(system.WithVersion("test"))))

	srv := NewServer(registry, "filesystem-mcp", "test",
		WithMetrics(metrics),
		WithInstructions("use absolute paths"),
	)
	return srv, mem, metrics
}

func send(t *testing.T, srv *Server, line string) reply {
	t.Helper()
	out := srv.HandleMessage(context.Background(), []byte(line))
	require.NotNil(t, out, "expected a reply to %s", line)
	var r reply
	require.NoError(t, json.Unmarshal(out, &r))
	assert.Equal(t, "2.0", r.JSONRPC)
	return r
}

func call(t *testing.T, srv *Server, name string, args string) CallToolResult {
	t.Helper()
	r := send(t, srv, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"`+name+`","arguments":`+args+`}}`)
	require.Nil(t, r.Error)
	var result CallToolResult
	require.NoError(t, json.Unmarshal(r.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result
}

func TestInitialize(t *testing.T) {
	srv, _, _ := newTestServer(t)

	r := send(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"inspector","version":"1.0"}}}`)
	require.Nil(t, r.Error)
	assert.JSONEq(t, "1", string(r.ID))

	var result InitializeResult
	require.NoError(t, json.Unmarshal(r.Result, &result))
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "filesystem-mcp", result.ServerInfo.Name)
	assert.Equal(t, "use absolute paths", result.Instructions)
	assert.Contains(t, result.Capabilities, "tools")
}

func TestNotificationsGetNoReply(t *testing.T) {
	srv, _, _ := newTestServer(t)

	assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/progress","params":{}}`)))
	assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list"}`)))
	assert.Nil(t, srv.HandleMessage(context.Background(), []byte("   ")))
}

func TestPing(t *testing.T) {
	srv, _, _ := newTestServer(t)

	r := send(t, srv, `{"jsonrpc":"2.0","id":"abc","method":"ping"}`)
	require.Nil(t, r.Error)
	assert.JSONEq(t, `"abc"`, string(r.ID))
	assert.JSONEq(t, `{}`, string(r.Result))
}

func TestToolsList(t *testing.T) {
	srv, _, _ := newTestServer(t)

	r := send(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Nil(t, r.Error)

	var result ListToolsResult
	require.NoError(t, json.Unmarshal(r.Result, &result))
	require.Len(t, result.Tools, 20)

	byName := make(map[string]Tool, len(result.Tools))
	for _, tool := range result.Tools {
		byName[tool.Name] = tool
	}

	for _, name := range []string{
		"get_current_directory",
		"get_file_system_path",
		"list_directory_contents",
		"read_file_contents",
		"write_file_contents",
		"delete_file_or_directory",
		"create_directory",
		"move_file_or_directory",
		"copy_file",
		"create_symlink",
		"file_or_directory_exists",
		"get_file_or_directory_size",
		"get_file_or_directory_last_modified",
		"get_file_mime_type",
		"find_files",
		"system_info",
		"system_ping",
	} {
		assert.Contains(t, byName, name)
	}

	write := byName["write_file_contents"]
	assert.Equal(t, "object", write.InputSchema.Type)
	assert.ElementsMatch(t, []string{"path", "content"}, write.InputSchema.Required)
	assert.Equal(t, "string", write.InputSchema.Properties["content"].Type)
	require.NotNil(t, write.Annotations)
	assert.False(t, write.Annotations.ReadOnlyHint)

	move := byName["move_file_or_directory"]
	assert.NotContains(t, move.InputSchema.Required, "overwrite")
	assert.Equal(t, "boolean", move.InputSchema.Properties["overwrite"].Type)

	assert.True(t, byName["read_file_contents"].Annotations.ReadOnlyHint)
}

func TestToolsCall(t *testing.T) {
	srv, mem, _ := newTestServer(t)

	result := call(t, srv, "write_file_contents", `{"path":"/work/a.txt","content":"hello"}`)
	assert.False(t, result.IsError)
	assert.Equal(t, "true", result.Content[0].Text)

	data, err := mem.ReadFile("/work/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	result = call(t, srv, "read_file_contents", `{"path":"/work/a.txt"}`)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello", result.Content[0].Text)

	result = call(t, srv, "list_directory_contents", `{"path":"/work"}`)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "a.txt")

	result = call(t, srv, "filesystem.get_file_or_directory_size", `{"path":"/work/a.txt"}`)
	assert.Equal(t, "5", result.Content[0].Text)
}

func TestToolsCallSentinels(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result := call(t, srv, "get_file_or_directory_size", `{"path":"/nope"}`)
	assert.False(t, result.IsError)
	assert.Equal(t, "-1", result.Content[0].Text)

	result = call(t, srv, "get_file_or_directory_last_modified", `{"path":"/nope"}`)
	assert.False(t, result.IsError)
	assert.Equal(t, "null", result.Content[0].Text)

	result = call(t, srv, "file_or_directory_exists", `{"path":"/nope"}`)
	assert.Equal(t, "false", result.Content[0].Text)
}

func TestToolsCallErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result := call(t, srv, "read_file_contents", `{}`)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "path")

	r := send(t, srv, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"format_disk","arguments":{}}}`)
	require.NotNil(t, r.Error)
	assert.Equal(t, CodeInvalidParams, r.Error.Code)
	assert.Contains(t, r.Error.Message, "unknown tool: format_disk")

	r = send(t, srv, `{"jsonrpc":"2.0","id":4,"method":"tools/call"}`)
	require.NotNil(t, r.Error)
	assert.Equal(t, CodeInvalidParams, r.Error.Code)
}

func TestSystemToolsAreReachable(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result := call(t, srv, "system_ping", `{}`)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "pong")
}

func TestProtocolErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		line string
		code int
	}{
		{name: "bad json", line: `{"jsonrpc":`, code: CodeParseError},
		{name: "wrong version", line: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, code: CodeInvalidRequest},
		{name: "missing method", line: `{"jsonrpc":"2.0","id":1}`, code: CodeInvalidRequest},
		{name: "unknown method", line: `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, code: CodeMethodNotFound},
		{name: "empty batch", line: `[]`, code: CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := send(t, srv, tt.line)
			require.NotNil(t, r.Error)
			assert.Equal(t, tt.code, r.Error.Code)
		})
	}
}

func TestBatch(t *testing.T) {
	srv, _, _ := newTestServer(t)

	out := srv.HandleMessage(context.Background(), []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"ping"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":2,"method":"nope"}
	]`))
	require.NotNil(t, out)

	var replies []reply
	require.NoError(t, json.Unmarshal(out, &replies))
	require.Len(t, replies, 2)
	assert.Nil(t, replies[0].Error)
	require.NotNil(t, replies[1].Error)
	assert.Equal(t, CodeMethodNotFound, replies[1].Error.Code)

	assert.Nil(t, srv.HandleMessage(context.Background(), []byte(`[{"jsonrpc":"2.0","method":"notifications/initialized"}]`)))
}

func TestServe(t *testing.T) {
	srv, _, metrics := newTestServer(t)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"cli","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_current_directory"}}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	require.NoError(t, srv.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second reply
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.JSONEq(t, "1", string(first.ID))
	assert.JSONEq(t, "2", string(second.ID))

	var result CallToolResult
	require.NoError(t, json.Unmarshal(second.Result, &result))
	assert.False(t, result.IsError)
	assert.Equal(t, "/", result.Content[0].Text)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.StreamMessages.WithLabelValues(transport, "in")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StreamMessages.WithLabelValues(transport, "out")))
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()
	assert.ErrorIs(t, srv.Serve(ctx, pr, &bytes.Buffer{}), context.Canceled)
}
