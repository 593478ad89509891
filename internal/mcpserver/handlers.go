package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rcliao/memory-fabric/internal/app"
	"github.com/rcliao/memory-fabric/internal/index"
	"github.com/rcliao/memory-fabric/internal/model"
	"github.com/rcliao/memory-fabric/internal/store"
	"github.com/rcliao/memory-fabric/internal/validate"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string) int {
	f, _ := args[key].(float64)
	return int(f)
}

func argFloat(args map[string]any, key string) float64 {
	f, _ := args[key].(float64)
	return f
}

// argTags reads a comma-separated tag list.
func argTags(args map[string]any, key string) []string {
	var tags []string
	for _, t := range strings.Split(argString(args, key), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// entryArg decodes the single entry carried in args["entry"].
func entryArg(args map[string]any) (any, *mcp.CallToolResult) {
	text := argString(args, "entry")
	if text == "" {
		return nil, mcp.NewToolResultError("Entry cannot be empty")
	}
	cands, err := app.DecodeCandidates([]byte(text))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	if len(cands) != 1 {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Expected one entry, got %d", len(cands)))
	}
	return cands[0], nil
}

// validateHandler handles validate_entry. A failed validation is a normal
// result, not a tool error.
func (s *Server) validateHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	cand, errRes := entryArg(args)
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(s.app.Validate(cand))
}

func (s *Server) storeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	cand, errRes := entryArg(args)
	if errRes != nil {
		return errRes, nil
	}

	rec, err := s.app.Put(ctx, cand, argBool(args, "embed"))
	if err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			b, _ := json.MarshalIndent(validate.Result[model.MemoryEntry]{Errors: ve.Errors}, "", "  ")
			return mcp.NewToolResultError(string(b)), nil
		}
		if rec == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to store entry: %v", err)), nil
		}
		s.app.Logger.Warn("entry stored but not indexed", "id", rec.Entry.ID, "err", err)
	}
	return jsonResult(rec)
}

func (s *Server) getHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	id := argString(args, "id")
	if id == "" {
		return mcp.NewToolResultError("Entry ID cannot be empty"), nil
	}

	records, err := s.app.Store.Get(ctx, store.GetParams{ID: id, History: argBool(args, "history")})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Get failed: %v", err)), nil
	}
	if len(records) == 1 {
		return jsonResult(records[0])
	}
	return jsonResult(records)
}

func (s *Server) listHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	records, err := s.app.Store.List(ctx, store.ListParams{
		Project: argString(args, "project"),
		Branch:  argString(args, "branch"),
		Type:    model.EntryType(argString(args, "type")),
		Status:  model.Status(argString(args, "status")),
		Limit:   argInt(args, "limit"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("List failed: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No entries found."), nil
	}
	return jsonResult(records)
}

func (s *Server) searchHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	query := argString(args, "query")
	if query == "" {
		return mcp.NewToolResultError("Search query cannot be empty"), nil
	}
	project := argString(args, "project")
	branch := argString(args, "branch")
	typ := model.EntryType(argString(args, "type"))
	limit := argInt(args, "limit")

	if argBool(args, "semantic") {
		results, err := s.app.SemanticSearch(ctx, app.SemanticParams{
			Query:     query,
			Filter:    index.Filter{Project: project, Branch: branch, Type: typ},
			Tags:      argTags(args, "tags"),
			Threshold: argFloat(args, "threshold"),
			Limit:     limit,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
		}
		return jsonResult(results)
	}

	results, err := s.app.Store.Search(ctx, store.SearchParams{
		Project: project,
		Branch:  branch,
		Type:    typ,
		Query:   query,
		Limit:   limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	return jsonResult(results)
}

func (s *Server) contextHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	result, err := s.app.Context(ctx, store.ContextParams{
		Project: argString(args, "project"),
		Branch:  argString(args, "branch"),
		Query:   argString(args, "query"),
		Budget:  argInt(args, "budget"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Context failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) deleteHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	id := argString(args, "id")
	if id == "" {
		return mcp.NewToolResultError("Entry ID cannot be empty"), nil
	}
	if err := s.app.Remove(ctx, id, argBool(args, "hard")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Entry '%s' deleted.", id)), nil
}
