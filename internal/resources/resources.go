// Package resources serves the search reference documents under
// vectra://search/ as MCP resources and through the read_resource tool.
package resources

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MIMEType of every document.
const MIMEType = "application/json"

//go:embed docs/*.json
var docs embed.FS

// Document describes one embedded reference document.
type Document struct {
	URI         string
	Name        string
	Description string
	file        string
}

// Documents lists the reference documents in registration order.
var Documents = []Document{
	{
		URI:         "vectra://search/query-examples",
		Name:        "Lucene Query Examples",
		Description: "Practical examples of Lucene query syntax for the advanced search tools.",
		file:        "docs/query-examples.json",
	},
	{
		URI:         "vectra://search/advanced-guide",
		Name:        "Advanced Search Guide",
		Description: "Search syntax, operators, wildcard best practices and troubleshooting tips.",
		file:        "docs/advanced-guide.json",
	},
	{
		URI:         "vectra://search/detection-fields",
		Name:        "Detection Fields Reference",
		Description: "Searchable detection fields, including which grouped fields use plural names.",
		file:        "docs/detection-fields.json",
	},
	{
		URI:         "vectra://search/account-fields",
		Name:        "Account Fields Reference",
		Description: "Searchable account fields, including LDAP and detection summary fields.",
		file:        "docs/account-fields.json",
	},
	{
		URI:         "vectra://search/host-fields",
		Name:        "Host Fields Reference",
		Description: "Searchable host fields, including LDAP, assignment and detection summary fields.",
		file:        "docs/host-fields.json",
	},
}

// URIs returns the URI of every document.
func URIs() []string {
	uris := make([]string, len(Documents))
	for i, d := range Documents {
		uris[i] = d.URI
	}
	return uris
}

// Read returns the content of the document at uri.
func Read(uri string) (string, error) {
	for _, d := range Documents {
		if d.URI != uri {
			continue
		}
		data, err := docs.ReadFile(d.file)
		if err != nil {
			return "", fmt.Errorf("failed to read resource %s: %w", uri, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unknown resource URI: %s", uri)
}

// Register adds every document to s as a resource and returns how many were
// added.
func Register(s *server.MCPServer) int {
	for _, d := range Documents {
		s.AddResource(
			mcp.NewResource(d.URI, d.Name,
				mcp.WithResourceDescription(d.Description),
				mcp.WithMIMEType(MIMEType),
			),
			handler(d.URI),
		)
	}
	return len(Documents)
}

func handler(uri string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := Read(uri)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: MIMEType,
				Text:     text,
			},
		}, nil
	}
}

// ReadTool returns the read_resource tool, which lets clients without
// resource support fetch the documents.
func ReadTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("read_resource",
			mcp.WithDescription("Read a Vectra search reference document by URI. Read the field references before building advanced search queries to get field names and syntax right."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("uri", mcp.Required(), mcp.Enum(URIs()...),
				mcp.Description("Resource URI to read, e.g. vectra://search/detection-fields"),
			),
		),
		Handler: readResource,
	}
}

func readResource(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri := req.GetString("uri", "")
	text, err := Read(uri)
	if err == nil {
		return mcp.NewToolResultText(text), nil
	}

	data, _ := json.MarshalIndent(map[string]any{
		"error":               fmt.Sprintf("Unknown resource URI: %s", uri),
		"available_resources": URIs(),
	}, "", "  ")
	return mcp.NewToolResultError(string(data)), nil
}
