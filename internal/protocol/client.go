package protocol

// Client is the server's view of the editor: typed wrappers around the
// notifications and requests the server initiates.
type Client struct {
	srv *Server
}

func NewClient(srv *Server) *Client {
	return &Client{srv: srv}
}

// PublishDiagnostics pushes the full diagnostic set for one document. An
// empty list clears the document's markers.
func (c *Client) PublishDiagnostics(params PublishDiagnosticsParams) {
	if params.Diagnostics == nil {
		params.Diagnostics = []Diagnostic{}
	}
	c.srv.Notify("textDocument/publishDiagnostics", params)
}

// CustomNotification emits a non-standard server notification such as the
// java/* progress family.
func (c *Client) CustomNotification(method string, params any) {
	c.srv.Notify(method, params)
}

// RegisterCapability dynamically registers a capability with the client.
func (c *Client) RegisterCapability(method string, options any) {
	c.srv.Request("client/registerCapability", RegistrationParams{
		Registrations: []Registration{{ID: method, Method: method, RegisterOptions: options}},
	})
}
