package procedures

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"encode-portal/encode"
)

const (
	serverName    = "encode-portal"
	serverVersion = "0.2.0"

	shutdownTimeout = 5 * time.Second
)

// Info carries the deployment facts reported by get_server_info.
type Info struct {
	PortalURL string
	CacheDir  string
	FilesDir  string
	Transport string
	HTTPAddr  string
}

// Server exposes the engine's query surface as MCP tools. Tools take and
// return plain structured data; the engine performs all portal and cache
// work.
type Server struct {
	engine    *encode.Engine
	info      Info
	mcpServer *mcp.Server
}

// New creates the MCP server and registers every tool.
func New(engine *encode.Engine, info Info) *Server {
	server := &Server{
		engine: engine,
		info:   info,
	}
	server.mcpServer = mcp.NewServer(
		&mcp.Implementation{Name: serverName, Version: serverVersion},
		nil,
	)
	server.registerTools()

	return server
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_by_biosample",
		Description: "Search experiments by cell type or tissue name, with optional organism, assay, and target filters",
	}, s.searchByBiosample)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_by_organism",
		Description: "Search experiments by organism scientific name, with optional biosample, assay, and target filters",
	}, s.searchByOrganism)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_by_target",
		Description: "Search experiments by target (transcription factor, histone mark, etc.), partial match supported",
	}, s.searchByTarget)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_experiment",
		Description: "Get the normalized metadata summary for one experiment",
	}, s.getExperiment)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_all_metadata",
		Description: "Get the full raw portal document for one experiment",
	}, s.getAllMetadata)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_experiments",
		Description: "List loaded experiments with pagination",
	}, s.listExperiments)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_types",
		Description: "List the file types available in an experiment",
	}, s.getFileTypes)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_files_by_type",
		Description: "Get an experiment's files grouped by file type, with optional release-date and status filters",
	}, s.getFilesByType)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_accessions_by_type",
		Description: "Get file accessions grouped by file type",
	}, s.getFileAccessionsByType)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_available_output_categories",
		Description: "List the output categories available in an experiment",
	}, s.getOutputCategories)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_available_output_types",
		Description: "List the output types available in an experiment",
	}, s.getOutputTypes)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_accessions_by_output_category",
		Description: "Get file accessions grouped by output category",
	}, s.getFileAccessionsByOutputCategory)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_accessions_by_output_type",
		Description: "Get file accessions grouped by output type",
	}, s.getFileAccessionsByOutputType)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_files_summary",
		Description: "Get per-type file counts with optionally truncated file lists",
	}, s.getFilesSummary)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_metadata",
		Description: "Get the full metadata for one file of an experiment",
	}, s.getFileMetadata)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_file_url",
		Description: "Get the download URL for one file of an experiment",
	}, s.getFileURL)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "download_files",
		Description: "Download an experiment's files to the local files directory",
	}, s.downloadFiles)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_cache_stats",
		Description: "Get statistics about the metadata cache",
	}, s.getCacheStats)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Clear the bulk experiment listing cache, optionally the metadata cache too",
	}, s.clearCache)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "clear_metadata_cache",
		Description: "Clear the metadata cache for one experiment or for all experiments",
	}, s.clearMetadataCache)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_server_info",
		Description: "Get server configuration information",
	}, s.getServerInfo)
}

// Run serves MCP on stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("serving MCP on stdio")

	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// RunHTTP serves MCP over the streamable HTTP transport until the context
// ends, then shuts the listener down gracefully.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: shutdownTimeout,
	}

	log.Info().Str("addr", addr).Msg("serving MCP over HTTP")

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
