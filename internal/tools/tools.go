// Package tools exposes the Vectra API as MCP tools.
//
// Handlers never return Go errors for API failures. Failures become MCP
// error results whose text names the operation and the cause, so callers
// see "Failed to fetch accounts: ..." rather than a transport fault.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/logging"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/metrics"
)

// API is the subset of *client.Client the tools call.
type API interface {
	Accounts(ctx context.Context, p client.AccountListParams) (client.Object, error)
	Account(ctx context.Context, id int, p client.AccountParams) (client.Object, error)
	Hosts(ctx context.Context, p client.HostListParams) (client.Object, error)
	Host(ctx context.Context, id int) (client.Object, error)
	Detections(ctx context.Context, p client.DetectionListParams) (client.Object, error)
	Detection(ctx context.Context, id int) (client.Object, error)
	DetectionPCAP(ctx context.Context, id int) ([]byte, error)
	MarkDetectionsFixed(ctx context.Context, ids []int, fixed bool) (client.Object, error)
	Assignments(ctx context.Context, p client.AssignmentListParams) (client.Object, error)
	Assignment(ctx context.Context, id int) (client.Object, error)
	CreateAssignment(ctx context.Context, req client.AssignmentRequest) (client.Object, error)
	DeleteAssignment(ctx context.Context, id int) (client.Object, error)
	AddNote(ctx context.Context, kind client.EntityKind, id int, note string) (client.Object, error)
	DeleteNote(ctx context.Context, kind client.EntityKind, id, noteID int) (client.Object, error)
	Tags(ctx context.Context, kind client.EntityKind, id int) (client.Object, error)
	UpdateTags(ctx context.Context, kind client.EntityKind, id int, tags []string) (client.Object, error)
	Users(ctx context.Context, p client.UserListParams) (client.Object, error)
	SearchAccounts(ctx context.Context, p client.SearchParams) (client.Object, error)
	SearchHosts(ctx context.Context, p client.SearchParams) (client.Object, error)
	SearchDetections(ctx context.Context, p client.SearchParams) (client.Object, error)
	SearchByName(ctx context.Context, name string, kind client.EntityKind) (client.Object, error)
}

// Tools holds the handlers of every tool group.
type Tools struct {
	api    API
	logger zerolog.Logger
}

// New creates the tool set backed by api.
func New(api API) *Tools {
	return &Tools{
		api:    api,
		logger: logging.NewLogger("tools"),
	}
}

// All returns every tool, instrumented, in registration order.
func (t *Tools) All() []server.ServerTool {
	groups := [][]server.ServerTool{
		t.detectionTools(),
		t.accountTools(),
		t.hostTools(),
		t.investigationTools(),
		t.managementTools(),
		t.searchTools(),
	}

	var all []server.ServerTool
	for _, g := range groups {
		for _, st := range g {
			st.Handler = t.instrument(st.Tool.Name, st.Handler)
			all = append(all, st)
		}
	}
	return all
}

// Register adds every tool, plus any extra tools defined outside this
// package, to s and returns how many were added.
func (t *Tools) Register(s *server.MCPServer, extra ...server.ServerTool) int {
	all := t.All()
	for _, st := range extra {
		st.Handler = t.instrument(st.Tool.Name, st.Handler)
		all = append(all, st)
	}
	s.AddTools(all...)
	return len(all)
}

// instrument records call metrics and logs failures.
func (t *Tools) instrument(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		outcome := "ok"
		if err != nil || (result != nil && result.IsError) {
			outcome = "error"
			t.logger.Warn().Str("tool", name).Err(err).Msg("Tool call failed")
		} else {
			t.logger.Debug().Str("tool", name).Dur("duration", time.Since(start)).Msg("Tool call completed")
		}
		metrics.ToolCalls.WithLabelValues(name, outcome).Inc()

		return result, err
	}
}

// tool pairs a definition with its handler.
func tool(def mcp.Tool, h server.ToolHandlerFunc) server.ServerTool {
	return server.ServerTool{Tool: def, Handler: h}
}

func failure(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...))
}

// indented renders v as two-space indented JSON.
func indented(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failure("Failed to encode result: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// compact renders v as single-line JSON.
func compact(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return failure("Failed to encode result: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// requireID reads a required integer argument that must be at least 1.
func requireID(req mcp.CallToolRequest, name string) (int, *mcp.CallToolResult) {
	id, err := req.RequireInt(name)
	if err != nil {
		return 0, failure("Missing or invalid '%s' argument", name)
	}
	if id < 1 {
		return 0, failure("'%s' must be a positive integer, got %d", name, id)
	}
	return id, nil
}

// optionalInt returns nil when the argument is absent.
func optionalInt(req mcp.CallToolRequest, name string) *int {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil
	}
	return client.Int(req.GetInt(name, 0))
}

// optionalBool returns nil when the argument is absent.
func optionalBool(req mcp.CallToolRequest, name string) *bool {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil
	}
	return client.Bool(req.GetBool(name, false))
}

// intRange checks an optional integer against inclusive bounds.
func intRange(name string, v *int, min, max int) *mcp.CallToolResult {
	if v != nil && (*v < min || *v > max) {
		return failure("'%s' must be between %d and %d, got %d", name, min, max, *v)
	}
	return nil
}

// parseIDList parses a comma separated list such as "1, 2,3".
func parseIDList(name, raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: expected comma-separated integer IDs", name, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resultsOf returns the "results" list of a list response.
func resultsOf(o client.Object) []any {
	if items, ok := o["results"].([]any); ok {
		return items
	}
	return nil
}

// countOf returns the "count" of a list response, falling back to the
// number of results.
func countOf(o client.Object) int {
	switch v := o["count"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return len(resultsOf(o))
}

// formatIDs renders ids the way users typed them, e.g. "[1, 2]".
func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

const severityLogic = `Severity Level Logic:
The severity level is calculated based on threat and certainty scores:
- Critical: threat >= 50 AND certainty >= 50
- High: threat >= 50 AND certainty < 50
- Medium: threat < 50 AND certainty >= 50
- Low: threat < 50 AND certainty < 50`
