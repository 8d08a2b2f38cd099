package procedures

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CacheStatsResult reports the metadata cache contents.
type CacheStatsResult struct {
	CacheDir   string         `json:"cache_dir" jsonschema:"cache root directory"`
	Entries    int            `json:"entries" jsonschema:"number of cached experiments"`
	TotalBytes int64          `json:"total_bytes" jsonschema:"total cache size in bytes"`
	Buckets    map[string]int `json:"buckets" jsonschema:"cached experiments per accession bucket"`
}

func (s *Server) getCacheStats(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, CacheStatsResult, error) {
	stats, err := s.engine.CacheStats()
	if err != nil {
		return nil, CacheStatsResult{}, err
	}

	return nil, CacheStatsResult{
		CacheDir:   s.info.CacheDir,
		Entries:    stats.Entries,
		TotalBytes: stats.TotalBytes,
		Buckets:    stats.Buckets,
	}, nil
}

// ClearCacheInput optionally extends the clear to the metadata cache.
type ClearCacheInput struct {
	ClearMetadata bool `json:"clear_metadata,omitempty" jsonschema:"also clear the per-experiment metadata cache"`
}

// MessageResult is a plain confirmation message.
type MessageResult struct {
	Message string `json:"message"`
}

func (s *Server) clearCache(_ context.Context, _ *mcp.CallToolRequest, input ClearCacheInput) (*mcp.CallToolResult, MessageResult, error) {
	if err := s.engine.ClearListingCache(); err != nil {
		return nil, MessageResult{}, err
	}

	if input.ClearMetadata {
		if err := s.engine.ClearMetadataCache(""); err != nil {
			return nil, MessageResult{}, err
		}
		return nil, MessageResult{Message: "all caches cleared"}, nil
	}

	return nil, MessageResult{Message: "experiment listing cache cleared"}, nil
}

// ClearMetadataCacheInput selects one experiment, or all when empty.
type ClearMetadataCacheInput struct {
	Accession string `json:"accession,omitempty" jsonschema:"experiment accession to clear; clears all when omitted"`
}

func (s *Server) clearMetadataCache(_ context.Context, _ *mcp.CallToolRequest, input ClearMetadataCacheInput) (*mcp.CallToolResult, MessageResult, error) {
	if err := s.engine.ClearMetadataCache(input.Accession); err != nil {
		return nil, MessageResult{}, err
	}

	if input.Accession == "" {
		return nil, MessageResult{Message: "metadata cache cleared"}, nil
	}
	return nil, MessageResult{Message: "metadata cache cleared for " + input.Accession}, nil
}
