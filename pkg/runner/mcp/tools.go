package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListNotesTool(srv, svc)
	registerGetNoteTool(srv, svc)
	registerCreateNoteTool(srv, svc)
	registerUpdateNoteTool(srv, svc)
	registerDeleteNoteTool(srv, svc)
}

func registerListNotesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_notes",
		mcp.WithDescription("List notes, newest first, optionally filtered by title."),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive text the title must contain."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Filter string `json:"filter"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		notes, err := svc.ListNotes(ctx, args.Filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"notes": notes,
			"count": len(notes),
		})
	})
}

func registerGetNoteTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_note",
		mcp.WithDescription("Fetch a note with its full content."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.GetNote(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCreateNoteTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"create_note",
		mcp.WithDescription("Create a note. The title defaults to \"New Note\"."),
		mcp.WithString("title",
			mcp.Description("Title of the new note."),
		),
		mcp.WithString("content",
			mcp.Description("Body of the new note."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateNote(ctx, args.Title, args.Content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerUpdateNoteTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"update_note",
		mcp.WithDescription("Change the title and/or content of a note. Omitted fields are kept."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note identifier."),
		),
		mcp.WithString("title",
			mcp.Description("Replacement title."),
		),
		mcp.WithString("content",
			mcp.Description("Replacement content."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID      string  `json:"id"`
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		dto, err := svc.UpdateNote(ctx, UpdateNoteOptions{ID: args.ID, Title: args.Title, Content: args.Content})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerDeleteNoteTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_note",
		mcp.WithDescription("Delete a note permanently."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Note identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteNote(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": id})
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
