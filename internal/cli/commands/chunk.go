package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchunk/internal/config"
	"github.com/leapstack-labs/leapchunk/pkg/chunk"
)

// ChunkOptions holds options for the chunk command.
type ChunkOptions struct {
	OutputFormat string
}

// NewChunkCommand creates the chunk command.
func NewChunkCommand() *cobra.Command {
	opts := &ChunkOptions{}

	cmd := &cobra.Command{
		Use:   "chunk <file>...",
		Short: "Chunk SQL files and print the result",
		Long: `Split one or more SQL files into bounded semantic chunks and print
chunk metadata as a table, or full chunk records as JSON.`,
		Example: `  # Chunk a script with defaults
  leapchunk chunk schema.sql

  # Force the T-SQL ruleset with a tight budget
  leapchunk chunk --dialect tsql --max-tokens 500 procs.sql

  # Emit full chunk records as JSON
  leapchunk chunk --output json schema.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "table", "Output format (table|json)")

	return cmd
}

func runChunk(cmd *cobra.Command, paths []string, opts *ChunkOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.LoggerFromContext(ctx)

	dialect, err := chunk.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}

	inputs := make([]chunk.FileInput, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, chunk.FileInput{Path: path, Content: string(content)})
	}

	results := chunk.ChunkFiles(ctx, inputs, chunk.BatchOptions{
		Dialect:   dialect,
		MaxTokens: cfg.MaxTokens,
		Workers:   cfg.Workers,
		Logger:    logger,
	})

	if opts.OutputFormat == "json" {
		return chunkJSON(cmd, results)
	}
	return chunkTable(cmd, results)
}

// chunkJSON prints full chunk records, one result object per file.
func chunkJSON(cmd *cobra.Command, results []chunk.FileResult) error {
	type fileOutput struct {
		Path    string        `json:"path"`
		Success bool          `json:"success"`
		Chunks  []chunk.Chunk `json:"chunks,omitempty"`
		Error   string        `json:"error,omitempty"`
	}

	out := make([]fileOutput, len(results))
	for i, r := range results {
		out[i] = fileOutput{Path: r.Path, Success: r.Success(), Chunks: r.Chunks}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// chunkTable prints a metadata summary per chunk.
func chunkTable(cmd *cobra.Command, results []chunk.FileResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"File", "#", "Type", "Dialect", "Tokens", "Range", "Tables"})

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", r.Path, r.Err)
			continue
		}
		for i, c := range r.Chunks {
			t.AppendRow(table.Row{
				r.Path,
				i + 1,
				c.Type.String(),
				c.Dialect.String(),
				c.TokenCount,
				fmt.Sprintf("%d..%d", c.Range.Start, c.Range.End),
				strings.Join(c.TablesReferenced, ", "),
			})
		}
	}

	t.Render()
	return nil
}
