// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/dragboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// toolPrefix namespaces every registered tool.
const toolPrefix = "dragboard."

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, errors.New("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	registerRowTools(mcpSrv, board)
	registerColumnTools(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "dragboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// jsonResult encodes one tool payload.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// registerBoardTools registers read-only board tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"board",
			mcp.WithDescription("Return every column with its rows in board order."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.Board(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("board", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"drag_events",
			mcp.WithDescription("List committed row and column moves, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum events to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			events, err := board.ListDragEvents(ctx, req.GetInt("limit", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("drag_events", map[string]any{
				"events": events,
			})
		},
	)
}

// registerRowTools registers row mutation tools.
func registerRowTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"add_row",
			mcp.WithDescription("Append a row to the end of a column."),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Destination column id")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Row title")),
			mcp.WithString("description", mcp.Description("Optional markdown description")),
			mcp.WithArray("labels", mcp.Description("Optional labels"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			row, err := board.AddRow(ctx, common.AddRowRequest{
				ColumnID:    columnID,
				Title:       title,
				Description: req.GetString("description", ""),
				Labels:      req.GetStringSlice("labels", nil),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_row", row)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"update_row",
			mcp.WithDescription("Update a row title, description or labels. Omitted fields are left alone."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Row id")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithArray("labels", mcp.Description("Replacement labels"), mcp.WithStringItems()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			var args struct {
				Title       *string   `json:"title"`
				Description *string   `json:"description"`
				Labels      *[]string `json:"labels"`
			}
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			patch := common.UpdateRowRequest{
				ID:          id,
				Title:       args.Title,
				Description: args.Description,
				Labels:      args.Labels,
			}
			row, err := board.UpdateRow(ctx, patch)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_row", row)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"move_row",
			mcp.WithDescription("Move a row to a position in any column. Fails while a pointer drag is active."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Row id")),
			mcp.WithString("column_id", mcp.Required(), mcp.Description("Destination column id")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Destination index, clamped to the column end")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			columnID, err := req.RequireString("column_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			index, err := req.RequireInt("index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			row, err := board.MoveRow(ctx, common.MoveRowRequest{ID: id, ColumnID: columnID, Index: index})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_row", row)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"delete_row",
			mcp.WithDescription("Delete one row."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Row id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := board.DeleteRow(ctx, id); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_row", map[string]any{"deleted": id})
		},
	)
}

// registerColumnTools registers column mutation tools.
func registerColumnTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"add_column",
			mcp.WithDescription("Append a column to the board."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Column name")),
			mcp.WithNumber("wip_limit", mcp.Description("Optional WIP limit, 0 for none")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			col, err := board.AddColumn(ctx, common.AddColumnRequest{Name: name, WIPLimit: req.GetInt("wip_limit", 0)})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_column", col)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"move_column",
			mcp.WithDescription("Move a column to a board position. Fails while a pointer drag is active."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Column id")),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Destination board position")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			index, err := req.RequireInt("index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			col, err := board.MoveColumn(ctx, common.MoveColumnRequest{ID: id, Index: index})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_column", col)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			toolPrefix+"delete_column",
			mcp.WithDescription("Delete one column and every row in it."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Column id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := board.DeleteColumn(ctx, id); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_column", map[string]any{"deleted": id})
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("drag_in_progress: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
