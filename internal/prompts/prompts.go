// Package prompts provides the investigation prompt templates.
package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	maxEntityID  = 999999
	defaultTheme = "dark"
)

const summarizeDetection = `Summarize the detection with detection_id : %d.
Keep the summary concise and focus on the affected hosts or accounts, the activity detected and the targeted resources.
Return the summary as a structured table with these columns:
- Detection ID
- Threat Type
- Affected Host/Account
- Targeted Resources
- Detection Time
- Status
- Assignment Status
- Summary
- Platform Links (direct links to the detection and the host/account in the Vectra platform)

The summary should be actionable and explain the nature of the threat and any immediate actions required.

DO NOT INCLUDE any information outside the table unless explicitly requested.`

const visualizeDetections = `Get all active detections on %[1]s : %[2]d and visualize the relationship of detections.
Create an interactive graph that shows the connections between the %[1]s, its related detections and the targeted resources.
The graph MUST include:
- Nodes for the %[1]s, its related detections and the targeted resources
- Edges for the relationships between the %[1]s, detections and resources
- Interactive features such as zooming, panning and tooltips with additional information
- Direct links within nodes to the %[1]s and related detections in the Vectra platform
- Clear labels on every node and edge
- A legend explaining the colors and shapes used
- A title and a short description of the graph

Create the graph in %[3]s theme.`

// Register adds every prompt to s and returns how many were added.
func Register(s *server.MCPServer) int {
	s.AddPrompt(mcp.NewPrompt("Summarize Detection",
		mcp.WithPromptDescription("Get a detailed summary of a specific detection in Vectra AI platform."),
		mcp.WithArgument("detection_id",
			mcp.ArgumentDescription("ID of the detection to summarize"),
			mcp.RequiredArgument(),
		),
	), summarize)

	s.AddPrompt(visualizePrompt("Host", "host"), visualize("host"))
	s.AddPrompt(visualizePrompt("Account", "account"), visualize("account"))
	return 3
}

func visualizePrompt(title, entity string) mcp.Prompt {
	return mcp.NewPrompt(fmt.Sprintf("Visualize %s Detections", title),
		mcp.WithPromptDescription(fmt.Sprintf("Visualize relationship of detections related to a specific %s in Vectra AI platform with an interactive graph.", entity)),
		mcp.WithArgument(entity+"_id",
			mcp.ArgumentDescription(fmt.Sprintf("ID of the %s to visualize detections for", entity)),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("graph_theme",
			mcp.ArgumentDescription("Theme for the graph visualization: light or dark (default: dark)"),
		),
	)
}

func summarize(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id, err := entityID(req.Params.Arguments, "detection_id")
	if err != nil {
		return nil, err
	}
	return result("Summary of a Vectra detection", fmt.Sprintf(summarizeDetection, id)), nil
}

func visualize(entity string) server.PromptHandlerFunc {
	return func(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		id, err := entityID(req.Params.Arguments, entity+"_id")
		if err != nil {
			return nil, err
		}
		theme, err := graphTheme(req.Params.Arguments["graph_theme"])
		if err != nil {
			return nil, err
		}
		return result(
			fmt.Sprintf("Detection graph of a Vectra %s", entity),
			fmt.Sprintf(visualizeDetections, entity, id, theme),
		), nil
	}
}

// entityID parses args[name] as an ID in 1..999999.
func entityID(args map[string]string, name string) (int, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if id < 1 || id > maxEntityID {
		return 0, fmt.Errorf("%s must be between 1 and %d, got %d", name, maxEntityID, id)
	}
	return id, nil
}

func graphTheme(raw string) (string, error) {
	switch theme := strings.ToLower(strings.TrimSpace(raw)); theme {
	case "":
		return defaultTheme, nil
	case "light", "dark":
		return theme, nil
	default:
		return "", fmt.Errorf("graph_theme must be 'light' or 'dark', got %q", raw)
	}
}

func result(description, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}
