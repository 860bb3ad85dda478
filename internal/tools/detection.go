package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/validate"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/client"
)

const (
	maxDetectionLimit = 1000
	noDetections      = "No detections found matching the specified criteria."
	keyAssetHelp      = "Filter for detections targeting a key asset. Defaults to false. To get all detections regardless of key asset targeting, search for both true and false values."
)

var (
	detectionStates     = []string{"active", "inactive", "fixed", "filteredbyai", "filteredbyrule"}
	detectionCategories = []string{"command", "botnet", "lateral", "reconnaissance", "exfiltration", "info"}
	detectionOrderings  = []string{"created_datetime", "last_timestamp", "id"}
)

// detectionFilterOptions are the filters shared by the detection list tools.
func detectionFilterOptions(orderingDefault string, orderingEnum bool) []mcp.ToolOption {
	ordering := []mcp.PropertyOption{
		mcp.Description("Order by field name. Use '-' prefix for descending order (e.g., '-last_timestamp', 'id')"),
		mcp.DefaultString(orderingDefault),
	}
	if orderingEnum {
		ordering = append(ordering, mcp.Enum(detectionOrderings...))
	}

	return []mcp.ToolOption{
		mcp.WithString("ordering", ordering...),
		mcp.WithString("state",
			mcp.Description("Filter by detection state (active, inactive, fixed, filteredbyai, filteredbyrule). Default is 'active'."),
			mcp.Enum(detectionStates...),
			mcp.DefaultString("active"),
		),
		mcp.WithString("detection_category",
			mcp.Description("Filter by detection category: Command & Control, Botnet, Exfiltration, Lateral Movement, Reconnaissance, Info. Partial word match."),
			mcp.Enum(detectionCategories...),
		),
		mcp.WithString("detection_name",
			mcp.Description("Filter by detection name. Can also perform partial word match"),
		),
		mcp.WithString("src_ip",
			mcp.Description("Filter by source IP address of the host that generated the detection. Must be a valid IPv4 or IPv6 address."),
		),
		mcp.WithString("start_date", mcp.Description("Filter by start date (YYYY-MM-DDTHH:MM:SS)")),
		mcp.WithString("end_date", mcp.Description("Filter by end date (YYYY-MM-DDTHH:MM:SS)")),
		mcp.WithBoolean("is_targeting_key_asset", mcp.Description(keyAssetHelp), mcp.DefaultBool(false)),
	}
}

// detectionFilter reads the shared filters. detection_type is accepted as
// an alias of detection_name.
func detectionFilter(req mcp.CallToolRequest, orderingDefault string) (client.DetectionListParams, *mcp.CallToolResult) {
	p := client.DetectionListParams{
		Ordering:            req.GetString("ordering", orderingDefault),
		State:               req.GetString("state", "active"),
		DetectionCategory:   req.GetString("detection_category", ""),
		Category:            req.GetString("category", ""),
		DetectionType:       req.GetString("detection_name", req.GetString("detection_type", "")),
		IsTargetingKeyAsset: client.Bool(req.GetBool("is_targeting_key_asset", false)),
	}

	if ip := req.GetString("src_ip", ""); ip != "" {
		if !validate.IP(ip) {
			return p, failure("Invalid src_ip: %s. Must be a valid IPv4 or IPv6 address.", ip)
		}
		p.SrcIP = ip
	}

	start, end, err := validate.DateRange(req.GetString("start_date", ""), req.GetString("end_date", ""))
	if err != nil {
		return p, failure("%v", err)
	}
	if !start.IsZero() {
		p.LastTimestampGTE = start.Format(time.RFC3339)
	}
	if !end.IsZero() {
		p.LastTimestampLTE = end.Format(time.RFC3339)
	}

	return p, nil
}

// detectionLimit reads limit, defaulting to def (0 means unlimited).
func detectionLimit(req mcp.CallToolRequest, def int) (int, *mcp.CallToolResult) {
	limit := optionalInt(req, "limit")
	if limit == nil {
		return def, nil
	}
	if bad := intRange("limit", limit, 1, maxDetectionLimit); bad != nil {
		return 0, bad
	}
	return *limit, nil
}

// listDetections fetches every page matching the filters.
func (t *Tools) listDetections(ctx context.Context, req mcp.CallToolRequest, orderingDefault string, defaultLimit int) ([]any, int, int, *mcp.CallToolResult) {
	p, bad := detectionFilter(req, orderingDefault)
	if bad != nil {
		return nil, 0, 0, bad
	}
	limit, bad := detectionLimit(req, defaultLimit)
	if bad != nil {
		return nil, 0, 0, bad
	}

	p.All = true
	resp, err := t.api.Detections(ctx, p)
	if err != nil {
		return nil, 0, 0, failure("Failed to list detections: %v", err)
	}
	return resultsOf(resp), countOf(resp), limit, nil
}

// limitedDetections truncates items to limit and builds the response
// envelope under key.
func limitedDetections(key string, items []any, total, limit int) map[string]any {
	out := map[string]any{"detection_count": total}
	if limit > 0 && total > limit {
		if len(items) > limit {
			items = items[:limit]
		}
		out["note"] = fmt.Sprintf("Results limited to %d detections. Total detections found: %d.", limit, total)
	}
	out[key] = items
	return out
}

func (t *Tools) detectionTools() []server.ServerTool {
	return []server.ServerTool{
		tool(mcp.NewTool("list_detection_ids",
			append([]mcp.ToolOption{
				mcp.WithDescription("List detection IDs with filtering and sorting options. Use this to get a list of detection IDs based on various criteria."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of detections to return in the batch. Defaults to 1000."),
					mcp.Min(1), mcp.Max(maxDetectionLimit), mcp.DefaultNumber(maxDetectionLimit),
				),
			}, detectionFilterOptions("last_timestamp", true)...)...,
		), t.listDetectionIDs),

		tool(mcp.NewTool("list_detections_with_basic_info",
			append([]mcp.ToolOption{
				mcp.WithDescription("List detections with basic information and minimal filtering options. For specific searches (exact type, source IP, source host, sensor name, descriptions or boolean queries) use advanced_search_detections instead."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of detections to return in the batch."),
					mcp.Min(1), mcp.Max(maxDetectionLimit),
				),
			}, detectionFilterOptions("last_timestamp", true)...)...,
		), t.listDetectionsBasic),

		tool(mcp.NewTool("list_detections_with_details",
			append([]mcp.ToolOption{
				mcp.WithDescription("List detections with full details, basic filtering and sorting options. For specific searches (exact type, source IP, source host, sensor name, descriptions or boolean queries) use advanced_search_detections instead."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithString("category",
					mcp.Description("Filter by detection category. Can also perform partial word match"),
					mcp.Enum(detectionCategories...),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of detections to return in the batch. Defaults to 1000"),
					mcp.Min(1), mcp.Max(maxDetectionLimit), mcp.DefaultNumber(maxDetectionLimit),
				),
			}, detectionFilterOptions("-last_timestamp", false)...)...,
		), t.listDetectionsDetailed),

		tool(mcp.NewTool("get_detection_count",
			append([]mcp.ToolOption{
				mcp.WithDescription("Get the total count of detections matching the specified criteria."),
				mcp.WithReadOnlyHintAnnotation(true),
			}, detectionFilterOptions("last_timestamp", true)...)...,
		), t.getDetectionCount),

		tool(mcp.NewTool("get_detection_details",
			mcp.WithDescription("Get complete detailed information for a particular detection.\n\n"+severityLogic),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to retrieve details for")),
		), t.getDetectionDetails),

		tool(mcp.NewTool("get_detection_summary",
			mcp.WithDescription("Get a concise summary of a detection including its ID, name, category, last timestamp, triage status, state, entity type, and detection summary."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to retrieve summary for")),
		), t.getDetectionSummary),

		tool(mcp.NewTool("get_detection_pcap",
			mcp.WithDescription("Get the packet capture of a detection as base64 encoded data."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to retrieve pcap for")),
		), t.getDetectionPCAP),

		tool(mcp.NewTool("create_detection_note",
			mcp.WithDescription("Add an investigation note to a detection."),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to add note to")),
			mcp.WithString("note", mcp.Required(), mcp.Description("Note text to add to the detection.")),
		), t.noteHandler(client.EntityDetection)),

		tool(mcp.NewTool("get_detection_tags",
			mcp.WithDescription("Get tags for a detection."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to get tags for")),
		), t.tagsHandler(client.EntityDetection)),

		tool(mcp.NewTool("update_detection_tags",
			mcp.WithDescription("Update tags for a detection. The given list replaces the existing tags."),
			mcp.WithNumber("detection_id", mcp.Required(), mcp.Min(1), mcp.Description("ID of the detection to update tags for")),
			mcp.WithArray("tags", mcp.Required(), mcp.Description("List of tags to set for the detection"), mcp.Items(map[string]any{"type": "string"})),
		), t.updateTagsHandler(client.EntityDetection)),
	}
}

func (t *Tools) listDetectionIDs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, limit, bad := t.listDetections(ctx, req, "last_timestamp", maxDetectionLimit)
	if bad != nil {
		return bad, nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText(noDetections), nil
	}

	ids := make([]any, 0, len(items))
	for _, item := range items {
		d, _ := item.(map[string]any)
		ids = append(ids, map[string]any{"id": d["id"]})
	}
	return indented(limitedDetections("detections_ids", ids, total, limit))
}

func (t *Tools) listDetectionsBasic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, limit, bad := t.listDetections(ctx, req, "last_timestamp", 0)
	if bad != nil {
		return bad, nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText(noDetections), nil
	}

	basic := make([]any, 0, len(items))
	for _, item := range items {
		d, _ := item.(map[string]any)
		basic = append(basic, map[string]any{
			"id":                 d["id"],
			"name":               d["detection"],
			"detection_category": d["detection_category"],
			"last_timestamp":     d["last_timestamp"],
			"is_triaged":         d["is_triaged"],
			"state":              valueOr(d, "state", "unknown"),
			"entity_type":        valueOr(d, "type", "unknown"),
		})
	}
	return indented(limitedDetections("detections", basic, total, limit))
}

func (t *Tools) listDetectionsDetailed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, limit, bad := t.listDetections(ctx, req, "-last_timestamp", maxDetectionLimit)
	if bad != nil {
		return bad, nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText(noDetections), nil
	}
	return indented(limitedDetections("detections", items, total, limit))
}

func (t *Tools) getDetectionCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, bad := detectionFilter(req, "last_timestamp")
	if bad != nil {
		return bad, nil
	}

	resp, err := t.api.Detections(ctx, p)
	if err != nil {
		return failure("Failed to count detections: %v", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Total detections matching criteria: %d", countOf(resp))), nil
}

func (t *Tools) getDetectionDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "detection_id")
	if bad != nil {
		return bad, nil
	}

	detection, err := t.api.Detection(ctx, id)
	if err != nil {
		return failure("Failed to retrieve details for detection %d: %v", id, err), nil
	}
	return compact(detection)
}

func (t *Tools) getDetectionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "detection_id")
	if bad != nil {
		return bad, nil
	}

	d, err := t.api.Detection(ctx, id)
	if client.IsNotFound(err) || (err == nil && len(d) == 0) {
		return mcp.NewToolResultText(fmt.Sprintf("Detection with ID %d not found.", id)), nil
	}
	if err != nil {
		return failure("Failed to retrieve detection summary: %v", err), nil
	}

	category, ok := d["detection_category"]
	if !ok {
		category = d["category"]
	}

	return indented(map[string]any{
		"id":                d["id"],
		"name":              d["detection"],
		"category":          category,
		"last_timestamp":    d["last_timestamp"],
		"is_triaged":        d["is_triaged"],
		"state":             valueOr(d, "state", "unknown"),
		"entity_type":       valueOr(d, "type", "unknown"),
		"detection_summary": valueOr(d, "summary", "No summary available"),
	})
}

func (t *Tools) getDetectionPCAP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := requireID(req, "detection_id")
	if bad != nil {
		return bad, nil
	}

	data, err := t.api.DetectionPCAP(ctx, id)
	if err != nil {
		return failure("Failed to retrieve pcap for detection %d: %v", id, err), nil
	}
	if len(data) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No pcap data found for detection ID %d.", id)), nil
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return mcp.NewToolResultText(fmt.Sprintf("PCAP data for detection ID %d:\n%s", id, encoded)), nil
}

// valueOr returns m[key], or def when the key is absent.
func valueOr(m map[string]any, key string, def any) any {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
