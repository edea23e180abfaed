// Package mcptools exposes read-only recruiting data as Model Context
// Protocol tools, so assistants can inspect positions and interview
// results over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
)

// New builds the MCP server bound to a store.
func New(st *store.Store, version string) *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: "hr-recruiter", Version: version}, nil)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_positions",
		Description: "List open and archived positions with their ids",
	}, func(ctx context.Context, req *sdk.CallToolRequest, args struct{}) (*sdk.CallToolResult, any, error) {
		positions, err := st.ListPositions()
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(positions)
	})

	type interviewArgs struct {
		InterviewID string `json:"interviewId"`
	}

	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_interview",
		Description: "Fetch one interview with its recorded answers",
	}, func(ctx context.Context, req *sdk.CallToolRequest, args interviewArgs) (*sdk.CallToolResult, any, error) {
		iv, err := st.GetInterview(args.InterviewID)
		if err != nil {
			return nil, nil, fmt.Errorf("interview %s: %w", args.InterviewID, err)
		}
		return jsonResult(iv)
	})

	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_transcript",
		Description: "Fetch the full chat transcript of an interview",
	}, func(ctx context.Context, req *sdk.CallToolRequest, args interviewArgs) (*sdk.CallToolResult, any, error) {
		entries, err := st.GetTranscript(args.InterviewID)
		if err != nil {
			return nil, nil, fmt.Errorf("transcript %s: %w", args.InterviewID, err)
		}
		return jsonResult(entries)
	})

	sdk.AddTool(server, &sdk.Tool{
		Name:        "dashboard_stats",
		Description: "Aggregate counts of positions, candidates and interviews",
	}, func(ctx context.Context, req *sdk.CallToolRequest, args struct{}) (*sdk.CallToolResult, any, error) {
		stats, err := st.Dashboard()
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(stats)
	})

	return server
}

// Run serves the tools over stdio until ctx is cancelled.
func Run(ctx context.Context, st *store.Store, version string) error {
	return New(st, version).Run(ctx, &sdk.StdioTransport{})
}

func jsonResult(v interface{}) (*sdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(data)}},
	}, nil, nil
}
