package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/debtmap-go/debtmap/internal/aggregate"
	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/internal/output"
	"github.com/debtmap-go/debtmap/internal/pipeline"
	"github.com/debtmap-go/debtmap/internal/satd"
	"github.com/debtmap-go/debtmap/pkg/config"
	"github.com/debtmap-go/debtmap/pkg/scanner"
)

// ScoreInput is the input for the debt_score tool.
type ScoreInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
	Top    int      `json:"top,omitempty" jsonschema:"Limit the result to the top N ranked functions. 0 means no limit."`
}

func getPaths(input ScoreInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input ScoreInput) output.Format {
	if input.Format == "json" {
		return output.FormatJSON
	}
	return output.FormatTOON
}

func formatOutput(data any) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// scoreResult is the wire shape returned by the debt_score tool: the
// same items/files pair the CLI's score command serializes to JSON.
type scoreResult struct {
	Items []aggregate.ScoredItem           `json:"items"`
	Files map[string]*aggregate.FileRollup `json:"files"`
}

func debtAdjustmentFromSATD(files []string) pipeline.DebtAdjustmentProvider {
	byFile := satd.CountByFile(files)
	if len(byFile) == 0 {
		return nil
	}
	return func(id model.FunctionID) float64 {
		return float64(byFile[id.File])
	}
}

func handleScore(_ context.Context, _ *mcp.CallToolRequest, input ScoreInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input)

	cfg, err := config.LoadOrDefault()
	if err != nil {
		return toolError(err.Error())
	}
	scan := scanner.NewScanner(cfg)

	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return toolError(err.Error())
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return toolError(err.Error())
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return toolError("no source files found")
	}

	parsed, _ := pipeline.ParseFiles(files)
	result := pipeline.Run(parsed, pipeline.ConfigFrom(cfg), nil, debtAdjustmentFromSATD(files))

	items := result.Items
	if input.Top > 0 && len(items) > input.Top {
		items = items[:input.Top]
	}

	payload := scoreResult{Items: items, Files: result.Files}

	if getFormat(input) == output.FormatJSON {
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return toolError(err.Error())
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(out)}}}, nil, nil
	}

	return toolResult(payload)
}
