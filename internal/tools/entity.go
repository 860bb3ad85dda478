package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
)

const maxEntityLimit = 1000

var accountFields = []string{
	"id", "url", "name", "state", "threat", "certainty", "severity", "account_type", "tags",
	"note", "notes", "note_modified_by", "note_modified_timestamp", "privilege_level",
	"privilege_category", "last_detection_timestamp", "detection_set", "probable_home",
	"assignment", "past_assignments",
}

// entityListOptions are the filters shared by list_accounts and list_hosts.
func entityListOptions(kind client.EntityKind) []mcp.ToolOption {
	plural := kind.Plural()
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("state",
			mcp.Description(fmt.Sprintf("Filter by %s state (active, inactive)", kind)),
			mcp.Enum("active", "inactive"),
			mcp.DefaultString("active"),
		),
		mcp.WithString("ordering",
			mcp.Description("Order by field name. Use '-' prefix for descending order. Valid fields: last_detection_timestamp, t_score, c_score, id"),
			mcp.DefaultString("-t_score"),
		),
		mcp.WithString("name", mcp.Description(fmt.Sprintf("Filter by %s name. Can also perform partial word match.", kind))),
		mcp.WithString("tags", mcp.Description(fmt.Sprintf("Filter for %s with a particular tag", plural))),
		mcp.WithNumber("threat_gte", mcp.Description("Filter by threat score greater than or equal to value"), mcp.Min(0), mcp.Max(99)),
		mcp.WithNumber("certainty_gte", mcp.Description("Filter by certainty score greater than or equal to value"), mcp.Min(0), mcp.Max(99)),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of %s to return in the batch", plural)),
			mcp.Min(1), mcp.Max(maxEntityLimit), mcp.DefaultNumber(maxEntityLimit),
		),
	}
}

// entityList holds the arguments of list_accounts and list_hosts.
type entityList struct {
	state, ordering, name string
	tags                  []string
	threatGTE             *int
	certaintyGTE          *int
	limit                 int
}

func readEntityList(req mcp.CallToolRequest) (entityList, *mcp.CallToolResult) {
	l := entityList{
		state:        req.GetString("state", "active"),
		ordering:     req.GetString("ordering", "-t_score"),
		name:         req.GetString("name", ""),
		threatGTE:    optionalInt(req, "threat_gte"),
		certaintyGTE: optionalInt(req, "certainty_gte"),
		limit:        req.GetInt("limit", maxEntityLimit),
	}
	if tag := req.GetString("tags", ""); tag != "" {
		l.tags = []string{tag}
	}

	if bad := intRange("threat_gte", l.threatGTE, 0, 99); bad != nil {
		return l, bad
	}
	if bad := intRange("certainty_gte", l.certaintyGTE, 0, 99); bad != nil {
		return l, bad
	}
	if bad := intRange("limit", &l.limit, 1, maxEntityLimit); bad != nil {
		return l, bad
	}
	return l, nil
}

// entityListResult truncates the aggregated results to limit.
func entityListResult(kind client.EntityKind, resp client.Object, limit int) (*mcp.CallToolResult, error) {
	items := resultsOf(resp)
	if len(items) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No %s found matching the specified criteria.", kind.Plural())), nil
	}
	total := countOf(resp)
	if len(items) > limit {
		items = items[:limit]
	}
	return indented(map[string]any{"total_count": total, kind.Plural(): items})
}

func (t *Tools) accountTools() []server.ServerTool {
	kind := client.EntityAccount
	return append([]server.ServerTool{
		tool(mcp.NewTool("list_accounts",
			append([]mcp.ToolOption{
				mcp.WithDescription("List accounts based on basic filters (state, ordering, name, tags, threat_gte, certainty_gte). For specific searches such as exact names, privilege levels, detection types or boolean queries use advanced_search_accounts instead."),
			}, entityListOptions(kind)...)...,
		), t.listAccounts),

		tool(mcp.NewTool("get_account_details",
			mcp.WithDescription("Get complete detailed information about a specific account, including detections, scoring information, notes and assignment.\n\n"+severityLogic),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("account_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the account to retrieve details for")),
			mcp.WithArray("fields",
				mcp.Description("Fields to return in the results."),
				mcp.Items(map[string]any{"type": "string", "enum": accountFields}),
			),
		), t.getAccountDetails),
	}, t.entityNoteAndTagTools(kind)...)
}

func (t *Tools) hostTools() []server.ServerTool {
	kind := client.EntityHost
	return append([]server.ServerTool{
		tool(mcp.NewTool("list_hosts",
			append([]mcp.ToolOption{
				mcp.WithDescription("List hosts based on basic filters (state, ordering, name, tags, threat_gte, certainty_gte, is_key_asset). For specific searches such as IP addresses, operating systems, sensor names or boolean queries use advanced_search_hosts instead."),
				mcp.WithBoolean("is_key_asset", mcp.Description("Filter for key assets. Do not use by default.")),
			}, entityListOptions(kind)...)...,
		), t.listHosts),

		tool(mcp.NewTool("get_host_details",
			mcp.WithDescription("Get complete detailed information about a specific host.\n\n"+severityLogic),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("host_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the host to retrieve details for")),
		), t.getHostDetails),
	}, t.entityNoteAndTagTools(kind)...)
}

// entityNoteAndTagTools builds add/delete note and get/update tag tools
// for accounts or hosts.
func (t *Tools) entityNoteAndTagTools(kind client.EntityKind) []server.ServerTool {
	idArg := string(kind) + "_id"
	article := "an"
	if kind == client.EntityHost {
		article = "a"
	}

	return []server.ServerTool{
		tool(mcp.NewTool(fmt.Sprintf("add_%s_note", kind),
			mcp.WithDescription(fmt.Sprintf("Add an investigation note to %s %s.", article, kind)),
			mcp.WithNumber(idArg, mcp.Required(), mcp.Min(1), mcp.Description(fmt.Sprintf("ID of the %s to add note to", kind))),
			mcp.WithString("note", mcp.Required(), mcp.Description(fmt.Sprintf("Note text to add to the %s.", kind))),
		), t.noteHandler(kind)),

		tool(mcp.NewTool(fmt.Sprintf("delete_%s_note", kind),
			mcp.WithDescription(fmt.Sprintf("Delete a note from %s %s.", article, kind)),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithNumber(idArg, mcp.Required(), mcp.Min(1), mcp.Description(fmt.Sprintf("ID of the %s to delete note from", kind))),
			mcp.WithNumber("note_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the note to delete")),
		), t.deleteNoteHandler(kind)),

		tool(mcp.NewTool(fmt.Sprintf("get_%s_tags", kind),
			mcp.WithDescription(fmt.Sprintf("Get tags for %s %s.", article, kind)),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber(idArg, mcp.Required(), mcp.Min(1), mcp.Description(fmt.Sprintf("ID of the %s to get tags for", kind))),
		), t.tagsHandler(kind)),

		tool(mcp.NewTool(fmt.Sprintf("update_%s_tags", kind),
			mcp.WithDescription(fmt.Sprintf("Update tags for %s %s. The given list replaces the existing tags.", article, kind)),
			mcp.WithNumber(idArg, mcp.Required(), mcp.Min(1), mcp.Description(fmt.Sprintf("ID of the %s to update tags for", kind))),
			mcp.WithArray("tags", mcp.Required(), mcp.Description(fmt.Sprintf("List of tags to set for the %s", kind)), mcp.Items(map[string]any{"type": "string"})),
		), t.updateTagsHandler(kind)),
	}
}

func (t *Tools) listAccounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, bad := readEntityList(req)
	if bad != nil {
		return bad, nil
	}

	resp, err := t.api.Accounts(ctx, client.AccountListParams{
		Paging:       client.Paging{All: true},
		State:        l.state,
		Ordering:     l.ordering,
		Name:         l.name,
		Tags:         l.tags,
		ThreatGTE:    l.threatGTE,
		CertaintyGTE: l.certaintyGTE,
	})
	if err != nil {
		return failure("Failed to fetch accounts: %v", err), nil
	}
	return entityListResult(client.EntityAccount, resp, l.limit)
}

func (t *Tools) listHosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	l, bad := readEntityList(req)
	if bad != nil {
		return bad, nil
	}

	resp, err := t.api.Hosts(ctx, client.HostListParams{
		Paging:       client.Paging{All: true},
		State:        l.state,
		Ordering:     l.ordering,
		Name:         l.name,
		Tags:         l.tags,
		ThreatGTE:    l.threatGTE,
		CertaintyGTE: l.certaintyGTE,
		IsKeyAsset:   optionalBool(req, "is_key_asset"),
	})
	if err != nil {
		return failure("Failed to fetch hosts: %v", err), nil
	}
	return entityListResult(client.EntityHost, resp, l.limit)
}

func (t *Tools) getAccountDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "account_id")
	if bad != nil {
		return bad, nil
	}

	account, err := t.api.Account(ctx, id, client.AccountParams{Fields: req.GetStringSlice("fields", nil)})
	if client.IsNotFound(err) {
		return mcp.NewToolResultText(fmt.Sprintf("No account found with ID: %d.", id)), nil
	}
	if err != nil {
		return failure("Failed to fetch account details: %v", err), nil
	}
	return indented(account)
}

func (t *Tools) getHostDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "host_id")
	if bad != nil {
		return bad, nil
	}

	host, err := t.api.Host(ctx, id)
	if client.IsNotFound(err) {
		return mcp.NewToolResultText(fmt.Sprintf("No host found with ID: %d.", id)), nil
	}
	if err != nil {
		return failure("Failed to fetch host details: %v", err), nil
	}
	return indented(host)
}

func (t *Tools) noteHandler(kind client.EntityKind) server.ToolHandlerFunc {
	idArg := string(kind) + "_id"
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, bad := requireID(req, idArg)
		if bad != nil {
			return bad, nil
		}
		note, err := req.RequireString("note")
		if err != nil || note == "" {
			return failure("Missing or invalid 'note' argument"), nil
		}

		resp, err := t.api.AddNote(ctx, kind, id, note)
		if err != nil {
			return failure("Failed to add note to %s %d: %v", kind, id, err), nil
		}
		return indented(resp)
	}
}

func (t *Tools) deleteNoteHandler(kind client.EntityKind) server.ToolHandlerFunc {
	idArg := string(kind) + "_id"
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, bad := requireID(req, idArg)
		if bad != nil {
			return bad, nil
		}
		noteID, bad := requireID(req, "note_id")
		if bad != nil {
			return bad, nil
		}

		resp, err := t.api.DeleteNote(ctx, kind, id, noteID)
		if err != nil {
			return failure("Failed to delete note %d from %s %d: %v", noteID, kind, id, err), nil
		}
		return indented(resp)
	}
}

func (t *Tools) tagsHandler(kind client.EntityKind) server.ToolHandlerFunc {
	idArg := string(kind) + "_id"
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, bad := requireID(req, idArg)
		if bad != nil {
			return bad, nil
		}

		resp, err := t.api.Tags(ctx, kind, id)
		if err != nil {
			return failure("Failed to get tags for %s %d: %v", kind, id, err), nil
		}
		return indented(resp)
	}
}

func (t *Tools) updateTagsHandler(kind client.EntityKind) server.ToolHandlerFunc {
	idArg := string(kind) + "_id"
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, bad := requireID(req, idArg)
		if bad != nil {
			return bad, nil
		}
		if _, ok := req.GetArguments()["tags"]; !ok {
			return failure("Missing or invalid 'tags' argument"), nil
		}

		resp, err := t.api.UpdateTags(ctx, kind, id, req.GetStringSlice("tags", []string{}))
		if err != nil {
			return failure("Failed to update tags for %s %d: %v", kind, id, err), nil
		}
		return indented(resp)
	}
}
