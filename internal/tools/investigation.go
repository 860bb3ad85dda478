package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/validate"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
)

func (t *Tools) investigationTools() []server.ServerTool {
	return []server.ServerTool{
		tool(mcp.NewTool("create_assignment",
			mcp.WithDescription("Create an investigation assignment for an account or host."),
			mcp.WithNumber("assign_to_user_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the user to assign the entity to")),
			mcp.WithNumber("assign_entity_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the entity (account or host) to assign.")),
			mcp.WithString("assign_entity_type", mcp.Required(), mcp.Enum("account", "host"),
				mcp.Description("Type of the entity specified in assign_entity_id"),
			),
		), t.createAssignment),

		tool(mcp.NewTool("list_assignments",
			mcp.WithDescription("List investigation assignments with optional filtering by creation time, resolved state, entities and assignees."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithBoolean("resolved", mcp.DefaultBool(false),
				mcp.Description("Filter assignments by resolved state. True for resolved, False for unresolved. Default is False."),
			),
			mcp.WithString("created_after", mcp.Description("List assignments created at or after this time stamp (YYYY-MM-DDTHH:MM:SS)")),
			mcp.WithString("accounts", mcp.Description("Filter by account IDs (comma-separated)")),
			mcp.WithString("hosts", mcp.Description("Filter by host IDs (comma-separated)")),
			mcp.WithString("assignees", mcp.Description("Filter by assignee user IDs (comma-separated)")),
		), t.listAssignments),

		tool(mcp.NewTool("list_assignments_for_user",
			mcp.WithDescription("List investigation assignments assigned to a user or analyst."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("user_id", mcp.Required(), mcp.Min(1), mcp.Description("User ID to retrieve assignments for.")),
			mcp.WithBoolean("resolved", mcp.DefaultBool(false),
				mcp.Description("Filter by resolved state. Default is False to retrieve only open assignments."),
			),
		), t.listAssignmentsForUser),

		tool(mcp.NewTool("delete_assignment",
			mcp.WithDescription("Unassign or delete an investigation assignment by its ID. Use list_assignments and list_assignments_for_user to fetch assignment IDs."),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithNumber("assignment_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the assignment to delete")),
		), t.deleteAssignment),

		tool(mcp.NewTool("get_assignment_detail_by_id",
			mcp.WithDescription("Retrieve details of a specific investigation assignment."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("assignment_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the assignment to retrieve")),
		), t.getAssignmentByID),

		tool(mcp.NewTool("get_assignment",
			mcp.WithDescription("Retrieve investigation assignments for specific accounts or hosts."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithArray("entity_ids", mcp.Required(), mcp.Description("List of entity IDs to retrieve assignment for"),
				mcp.Items(map[string]any{"type": "integer"}),
			),
			mcp.WithString("entity_type", mcp.Required(), mcp.Enum("host", "account"),
				mcp.Description("Type of entity to retrieve assignment for (host or account)"),
			),
		), t.getAssignmentForEntities),

		tool(mcp.NewTool("create_account_note",
			mcp.WithDescription("Add an investigation note to an account."),
			mcp.WithNumber("account_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the account to add note to")),
			mcp.WithString("note", mcp.Required(), mcp.Description("Note text to add to the account.")),
		), t.noteHandler(client.EntityAccount)),

		tool(mcp.NewTool("create_host_note",
			mcp.WithDescription("Add an investigation note to a host."),
			mcp.WithNumber("host_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the host to add note to")),
			mcp.WithString("note", mcp.Required(), mcp.Description("Note text to add to the host.")),
		), t.noteHandler(client.EntityHost)),

		tool(mcp.NewTool("mark_detection_fixed",
			mcp.WithDescription("Mark or unmark detections as fixed. Marking as fixed closes the detection as remediated."),
			mcp.WithArray("detection_ids", mcp.Required(), mcp.Description("List of detection IDs to mark as fixed or not fixed"),
				mcp.Items(map[string]any{"type": "integer"}),
			),
			mcp.WithBoolean("mark_fixed", mcp.Required(), mcp.Description("True to mark as fixed, False to unmark as fixed")),
		), t.markDetectionFixed),
	}
}

func (t *Tools) createAssignment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, bad := requireID(req, "assign_to_user_id")
	if bad != nil {
		return bad, nil
	}
	entityID, bad := requireID(req, "assign_entity_id")
	if bad != nil {
		return bad, nil
	}
	entityType, err := req.RequireString("assign_entity_type")
	if err != nil || !validate.EntityType(entityType) {
		return failure("assign_entity_type must be either 'account' or 'host'"), nil
	}

	body := client.AssignmentRequest{AssignToUserID: userID}
	if client.EntityKind(strings.ToLower(entityType)) == client.EntityAccount {
		body.AccountID = client.Int(entityID)
	} else {
		body.HostID = client.Int(entityID)
	}

	assignment, err := t.api.CreateAssignment(ctx, body)
	if err != nil {
		return failure("Failed to create assignment: %v", err), nil
	}
	return compact(assignment)
}

func (t *Tools) listAssignments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := client.AssignmentListParams{Resolved: client.Bool(req.GetBool("resolved", false))}

	created, _, err := validate.DateRange(req.GetString("created_after", ""), "")
	if err != nil {
		return failure("%v", err), nil
	}
	if !created.IsZero() {
		p.CreatedAfter = created.Format(time.RFC3339)
	}

	for _, f := range []struct {
		name string
		dst  *[]int
	}{
		{"accounts", &p.Accounts},
		{"hosts", &p.Hosts},
		{"assignees", &p.Assignees},
	} {
		ids, err := parseIDList(f.name, req.GetString(f.name, ""))
		if err != nil {
			return failure("%v", err), nil
		}
		*f.dst = ids
	}

	return t.assignments(ctx, p)
}

func (t *Tools) listAssignmentsForUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, bad := requireID(req, "user_id")
	if bad != nil {
		return bad, nil
	}
	return t.assignments(ctx, client.AssignmentListParams{
		Assignees: []int{userID},
		Resolved:  client.Bool(req.GetBool("resolved", false)),
	})
}

func (t *Tools) assignments(ctx context.Context, p client.AssignmentListParams) (*mcp.CallToolResult, error) {
	resp, err := t.api.Assignments(ctx, p)
	if err != nil {
		return failure("Failed to list assignments: %v", err), nil
	}
	if len(resp) == 0 {
		return mcp.NewToolResultText("No assignments found."), nil
	}
	return indented(resp)
}

func (t *Tools) deleteAssignment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "assignment_id")
	if bad != nil {
		return bad, nil
	}
	if _, err := t.api.DeleteAssignment(ctx, id); err != nil {
		return failure("Failed to delete assignment %d: %v", id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Assignment %d deleted successfully.", id)), nil
}

func (t *Tools) getAssignmentByID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "assignment_id")
	if bad != nil {
		return bad, nil
	}
	assignment, err := t.api.Assignment(ctx, id)
	if err != nil {
		return failure("Failed to retrieve assignment %d: %v", id, err), nil
	}
	return indented(assignment)
}

func (t *Tools) getAssignmentForEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetIntSlice("entity_ids", nil)
	if len(ids) == 0 {
		return failure("Missing or invalid 'entity_ids' argument"), nil
	}
	entityType, err := req.RequireString("entity_type")
	if err != nil || !validate.EntityType(entityType) {
		return failure("entity_type must be either 'host' or 'account'."), nil
	}

	var p client.AssignmentListParams
	if client.EntityKind(strings.ToLower(entityType)) == client.EntityHost {
		p.Hosts = ids
	} else {
		p.Accounts = ids
	}

	resp, err := t.api.Assignments(ctx, p)
	if err != nil {
		return failure("Failed to fetch assignment for %s: %s: %v", entityType, formatIDs(ids), err), nil
	}
	results := resultsOf(resp)
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No assignments found for %s: %s.", entityType, formatIDs(ids))), nil
	}
	return indented(results)
}

func (t *Tools) markDetectionFixed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetIntSlice("detection_ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultText("No detection IDs provided."), nil
	}
	fixed, err := req.RequireBool("mark_fixed")
	if err != nil {
		return failure("Missing or invalid 'mark_fixed' argument"), nil
	}

	if _, err := t.api.MarkDetectionsFixed(ctx, ids, fixed); err != nil {
		return failure("Failed to mark detections: %v", err), nil
	}

	state := "fixed"
	if !fixed {
		state = "not fixed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Marked %d detections as %s.", len(ids), state)), nil
}
