package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/validate"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
)

const maxSearchPageSize = 5000

var searchEntityTypes = []string{"accounts", "hosts", "detections"}

// searchOptions are the paging arguments shared by every search tool.
func searchOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("page", mcp.Min(1), mcp.Description("Page number for pagination (default: 1)")),
		mcp.WithNumber("page_size", mcp.Min(1), mcp.Max(maxSearchPageSize),
			mcp.Description("Number of results per page (default: 50, max: 5000)"),
		),
		mcp.WithBoolean("auto_paginate", mcp.DefaultBool(false),
			mcp.Description("Automatically paginate through all results (default: False)"),
		),
	}
}

func searchTool(name, description, queryHelp string, h server.ToolHandlerFunc) server.ServerTool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("query_string", mcp.Required(), mcp.Description(queryHelp)),
	}, searchOptions()...)
	return tool(mcp.NewTool(name, opts...), h)
}

func (t *Tools) searchTools() []server.ServerTool {
	return []server.ServerTool{
		searchTool("advanced_search_accounts",
			"Advanced search for accounts using Lucene query syntax. Use for searches by name (account.name:admin*), privilege level (account.privilege_level:[8 TO 10]), department (account.ldap.department:IT) or boolean combinations. See vectra://search/account-fields and vectra://search/query-examples.",
			"Lucene search query for accounts, e.g. 'account.name:admin*'",
			t.searchHandler("accounts", t.api.SearchAccounts),
		),
		searchTool("advanced_search_hosts",
			"Advanced search for hosts using Lucene query syntax. Use for searches by name (host.name:server*), IP (host.ip:192.168.1.*), key assets (host.is_key_asset:true), sensor or boolean combinations. See vectra://search/host-fields and vectra://search/query-examples.",
			"Lucene search query for hosts, e.g. 'host.ip:192.168.1.*'",
			t.searchHandler("hosts", t.api.SearchHosts),
		),
		searchTool("advanced_search_detections",
			"Advanced search for detections using Lucene query syntax. Use for searches by category (detection.category:lateral), source IP (detection.grouped_details.src_ip:10.0.0.1), file type or boolean combinations. See vectra://search/detection-fields and vectra://search/query-examples.",
			"Lucene search query for detections, e.g. 'detection.category:lateral'",
			t.searchHandler("detections", t.api.SearchDetections),
		),

		tool(mcp.NewTool("unified_search",
			append([]mcp.ToolOption{
				mcp.WithDescription("Search accounts, hosts and detections at once with a single Lucene query. Results are keyed by entity type; a failed entity type reports its error in place of results."),
				mcp.WithString("query_string", mcp.Required(), mcp.Description("Lucene search query applied to every entity type")),
				mcp.WithArray("entity_types",
					mcp.Description("Entity types to search (default: all types)"),
					mcp.Items(map[string]any{"type": "string", "enum": searchEntityTypes}),
				),
			}, searchOptions()...)...,
		), t.unifiedSearch),

		tool(mcp.NewTool("search_by_name",
			mcp.WithDescription("Search accounts and hosts by name. Without entity_type both are searched concurrently."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("name", mcp.Required(), mcp.Description("Name or wildcard pattern to search for")),
			mcp.WithString("entity_type", mcp.Enum("account", "host"), mcp.Description("Restrict the search to accounts or hosts")),
		), t.searchByName),
	}
}

type searchFunc func(ctx context.Context, p client.SearchParams) (client.Object, error)

// searchParams reads the paging arguments of a search tool.
func searchParams(req mcp.CallToolRequest) (client.SearchParams, *mcp.CallToolResult) {
	p := client.SearchParams{
		Paging: client.Paging{
			Page:     optionalInt(req, "page"),
			PageSize: optionalInt(req, "page_size"),
			All:      req.GetBool("auto_paginate", false),
		},
		QueryString: req.GetString("query_string", ""),
	}
	if p.QueryString == "" {
		return p, failure("Missing or invalid 'query_string' argument")
	}
	if p.Page != nil && *p.Page < 1 {
		return p, failure("'page' must be at least 1, got %d", *p.Page)
	}
	if bad := intRange("page_size", p.PageSize, 1, maxSearchPageSize); bad != nil {
		return p, bad
	}
	return p, nil
}

func (t *Tools) searchHandler(entity string, search searchFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, bad := searchParams(req)
		if bad != nil {
			return bad, nil
		}
		results, err := search(ctx, p)
		if err != nil {
			return failure("Failed to search %s: %v", entity, err), nil
		}
		return indented(results)
	}
}

func (t *Tools) unifiedSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, bad := searchParams(req)
	if bad != nil {
		return bad, nil
	}

	types := req.GetStringSlice("entity_types", searchEntityTypes)
	if len(types) == 0 {
		types = searchEntityTypes
	}

	searches := map[string]searchFunc{
		"accounts":   t.api.SearchAccounts,
		"hosts":      t.api.SearchHosts,
		"detections": t.api.SearchDetections,
	}
	for _, et := range types {
		if _, ok := searches[et]; !ok {
			return failure("Invalid entity type %q. Valid types: %v", et, searchEntityTypes), nil
		}
	}

	var (
		mu      sync.Mutex
		results = make(map[string]any, len(types))
		g       errgroup.Group
	)
	for _, et := range types {
		search := searches[et]
		g.Go(func() error {
			var out any
			res, err := search(ctx, p)
			if err != nil {
				out = map[string]any{"error": fmt.Sprintf("Failed to search %s: %v", et, err)}
			} else {
				out = res
			}
			mu.Lock()
			results[et] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return indented(results)
}

func (t *Tools) searchByName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || name == "" {
		return failure("Missing or invalid 'name' argument"), nil
	}

	var kind client.EntityKind
	if et := req.GetString("entity_type", ""); et != "" {
		if !validate.EntityType(et) {
			return failure("entity_type must be either 'account' or 'host'"), nil
		}
		kind = client.EntityKind(strings.ToLower(et))
	}

	results, err := t.api.SearchByName(ctx, name, kind)
	if err != nil {
		return failure("Failed to search by name: %v", err), nil
	}
	return indented(results)
}
