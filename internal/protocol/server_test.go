package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestServeOnceDispatchesRequest(t *testing.T) {
	in := strings.NewReader(frame(`{"jsonrpc":"2.0","id":1,"method":"test/echo","params":{"x":7}}`))
	var out bytes.Buffer
	srv := NewServer(in, &out)

	srv.Handle("test/echo", func(params json.RawMessage) (any, error) {
		var p struct {
			X int `json:"x"`
		}
		require.NoError(t, json.Unmarshal(params, &p))
		return p.X, nil
	})

	require.NoError(t, srv.ServeOnce())
	assert.Contains(t, out.String(), `"result":7`)
	assert.Contains(t, out.String(), "Content-Length:")
}

func TestServeOnceDispatchesNotification(t *testing.T) {
	in := strings.NewReader(frame(`{"jsonrpc":"2.0","method":"test/ping"}`))
	var out bytes.Buffer
	srv := NewServer(in, &out)

	called := false
	srv.OnNotify("test/ping", func(params json.RawMessage) { called = true })

	require.NoError(t, srv.ServeOnce())
	assert.True(t, called)
	assert.Empty(t, out.String(), "notifications get no response")
}

func TestUnknownMethodReturnsError(t *testing.T) {
	in := strings.NewReader(frame(`{"jsonrpc":"2.0","id":2,"method":"test/missing"}`))
	var out bytes.Buffer
	srv := NewServer(in, &out)

	require.NoError(t, srv.ServeOnce())
	assert.Contains(t, out.String(), `-32601`)
}

func TestRequestErrorCodePropagates(t *testing.T) {
	in := strings.NewReader(frame(`{"jsonrpc":"2.0","id":3,"method":"textDocument/rename"}`))
	var out bytes.Buffer
	srv := NewServer(in, &out)

	srv.Handle("textDocument/rename", func(params json.RawMessage) (any, error) {
		return nil, NewRequestError(CodeRequestFailed, "rename is not implemented")
	})

	require.NoError(t, srv.ServeOnce())
	assert.Contains(t, out.String(), `-32803`)
	assert.Contains(t, out.String(), "rename is not implemented")
}

func TestResponseMessagesAreIgnored(t *testing.T) {
	// A response to a server-initiated request: id, no method.
	in := strings.NewReader(frame(`{"jsonrpc":"2.0","id":9,"result":null}`))
	var out bytes.Buffer
	srv := NewServer(in, &out)

	require.NoError(t, srv.ServeOnce())
	assert.Empty(t, out.String())
}

func TestMarkedStringWireShapes(t *testing.T) {
	plain, err := json.Marshal(MarkedString{Value: "docs"})
	require.NoError(t, err)
	assert.Equal(t, `"docs"`, string(plain))

	coded, err := json.Marshal(MarkedString{Language: "java", Value: "class A {}"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"java","value":"class A {}"}`, string(coded))

	var back MarkedString
	require.NoError(t, json.Unmarshal(coded, &back))
	assert.Equal(t, "java", back.Language)
}
