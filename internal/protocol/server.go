// Package protocol implements the JSON-RPC 2.0 transport for the language
// server: Content-Length framed messages over a reader/writer pair, handler
// registration by method name, and server-initiated notifications.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/standardbeagle/jls/internal/debug"
)

// HandlerFunc processes a JSON-RPC request and returns a result or error.
type HandlerFunc func(params json.RawMessage) (any, error)

// NotifyFunc processes a JSON-RPC notification (no response expected).
type NotifyFunc func(params json.RawMessage)

// RequestError carries an explicit JSON-RPC error code back to the client.
type RequestError struct {
	Code    int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// NewRequestError builds a request-level failure with the given code.
func NewRequestError(code int, format string, args ...any) *RequestError {
	return &RequestError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Server reads framed messages, dispatches them to registered handlers, and
// writes responses. Requests are processed one at a time in arrival order;
// handlers never run concurrently.
type Server struct {
	reader   *bufio.Reader
	writer   io.Writer
	handlers map[string]HandlerFunc
	notifs   map[string]NotifyFunc
	outMu    sync.Mutex
	nextID   int
}

func NewServer(in io.Reader, out io.Writer) *Server {
	return &Server{
		reader:   bufio.NewReader(in),
		writer:   out,
		handlers: make(map[string]HandlerFunc),
		notifs:   make(map[string]NotifyFunc),
	}
}

func (s *Server) Handle(method string, fn HandlerFunc) {
	s.handlers[method] = fn
}

func (s *Server) OnNotify(method string, fn NotifyFunc) {
	s.notifs[method] = fn
}

// Serve reads messages in a loop until EOF or a transport error.
func (s *Server) Serve() error {
	for {
		err := s.ServeOnce()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ServeOnce reads and handles a single message.
func (s *Server) ServeOnce() error {
	msg, err := readMessage(s.reader)
	if err != nil {
		return err
	}

	// Responses to server-initiated requests (client/registerCapability)
	// carry an id but no method; nothing to do with them.
	if msg.Method == "" {
		return nil
	}

	isNotification := len(msg.ID) == 0 || string(msg.ID) == "null"
	if isNotification {
		if fn, ok := s.notifs[msg.Method]; ok {
			fn(msg.Params)
		} else {
			debug.LogLSP("no handler for notification %s", msg.Method)
		}
		return nil
	}

	fn, ok := s.handlers[msg.Method]
	if !ok {
		return s.sendError(msg.ID, CodeMethodNotFound, "method not found: "+msg.Method)
	}

	result, handlerErr := fn(msg.Params)
	if handlerErr != nil {
		if re, ok := handlerErr.(*RequestError); ok {
			return s.sendError(msg.ID, re.Code, re.Message)
		}
		return s.sendError(msg.ID, CodeInternalError, handlerErr.Error())
	}
	return s.sendResult(msg.ID, result)
}

func (s *Server) sendResult(id json.RawMessage, result any) error {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return writeMessage(s.writer, resp)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return writeMessage(s.writer, resp)
}

// Notify sends a server-initiated notification (e.g., diagnostics).
func (s *Server) Notify(method string, params any) error {
	msg := struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{JSONRPC: "2.0", Method: method, Params: params}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return writeMessage(s.writer, msg)
}

// Request sends a server-initiated request. The eventual response is
// discarded by ServeOnce; the server only issues fire-and-forget requests
// like client/registerCapability.
func (s *Server) Request(method string, params any) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	s.nextID++
	msg := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params"`
	}{JSONRPC: "2.0", ID: s.nextID, Method: method, Params: params}
	return writeMessage(s.writer, msg)
}

// readMessage reads a Content-Length framed JSON-RPC message.
func readMessage(br *bufio.Reader) (rpcMessage, error) {
	var contentLen int
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return rpcMessage{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Content-Length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return rpcMessage{}, fmt.Errorf("bad Content-Length header %q: %w", line, err)
			}
			contentLen = n
		}
	}
	if contentLen <= 0 {
		return rpcMessage{}, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLen)
	if _, err := io.ReadFull(br, body); err != nil {
		return rpcMessage{}, err
	}

	var msg rpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return rpcMessage{}, fmt.Errorf("malformed message: %w", err)
	}
	return msg, nil
}

func writeMessage(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
