package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/validate"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
)

const maxUserLimit = 1000

func (t *Tools) managementTools() []server.ServerTool {
	return []server.ServerTool{
		tool(mcp.NewTool("list_platform_users",
			mcp.WithDescription("List users of the Vectra platform."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("role", mcp.Description("Filter by user role")),
			mcp.WithString("last_login_after", mcp.Description("Filter by last login date in ISO format (YYYY-MM-DDTHH:MM:SS)")),
			mcp.WithString("username", mcp.Description("Filter by username")),
			mcp.WithString("account_type", mcp.Enum("local", "SAML"), mcp.Description("Filter by account type (local or SAML)")),
			mcp.WithString("authentication_profile", mcp.Description("Filter by authentication profile")),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of users to return. Defaults to 1000"),
				mcp.Min(1), mcp.Max(maxUserLimit), mcp.DefaultNumber(maxUserLimit),
			),
		), t.listPlatformUsers),
	}
}

func (t *Tools) listPlatformUsers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", maxUserLimit)
	if bad := intRange("limit", &limit, 1, maxUserLimit); bad != nil {
		return bad, nil
	}

	p := client.UserListParams{
		Paging:                client.Paging{All: true},
		Role:                  req.GetString("role", ""),
		Username:              req.GetString("username", ""),
		AccountType:           req.GetString("account_type", ""),
		AuthenticationProfile: req.GetString("authentication_profile", ""),
	}

	since, _, err := validate.DateRange(req.GetString("last_login_after", ""), "")
	if err != nil {
		return failure("%v", err), nil
	}
	if !since.IsZero() {
		p.LastLoginGTE = since.Format(time.RFC3339)
	}

	resp, err := t.api.Users(ctx, p)
	if err != nil {
		return failure("Failed to list users: %v", err), nil
	}

	users := resultsOf(resp)
	if len(users) == 0 {
		return mcp.NewToolResultText("No users found."), nil
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return indented(map[string]any{"user_count": len(users), "user_list": users})
}
