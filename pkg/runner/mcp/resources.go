package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerNotesResource(srv, svc)
	registerNoteTemplate(srv, svc)
}

func registerNotesResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"notes://list",
		"Notes",
		mcp.WithResourceDescription("Every note of the signed-in user, newest first."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		notes, err := svc.ListNotes(ctx, "")
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"notes": notes,
			"count": len(notes),
		})
	})
}

func registerNoteTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"notes://note/{id}",
		"Note",
		mcp.WithTemplateDescription("A single note with its content."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := templateArg(request.Params.Arguments["id"])
		if id == "" {
			return nil, fmt.Errorf("note id is required")
		}
		dto, err := svc.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{"note": dto})
	})
}

// templateArg accepts both a plain string and the single-element list some
// versions of the template matcher produce.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
