package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/debtmap-go/debtmap/internal/aggregate"
	"github.com/debtmap-go/debtmap/internal/mcpserver"
	"github.com/debtmap-go/debtmap/internal/model"
	"github.com/debtmap-go/debtmap/internal/output"
	"github.com/debtmap-go/debtmap/internal/pipeline"
	"github.com/debtmap-go/debtmap/internal/satd"
	"github.com/debtmap-go/debtmap/internal/scorer"
	"github.com/debtmap-go/debtmap/pkg/config"
	"github.com/debtmap-go/debtmap/pkg/scanner"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "debtmap",
		Usage:    "Technical debt scoring and classification engine",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Debtmap ranks functions by a coverage-weighted, entropy-dampened
technical debt score, combining complexity, call-graph position, and
architectural coupling into a single prioritized list.

Supports: Go, Rust, Python, TypeScript, JavaScript, Java, C, C++, Ruby, PHP`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DEBTMAP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the entropy analyzer's content-addressed cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Accepted but has no effect; no command reads it",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC()
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			scoreCmd(),
			mcpCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Rank functions by a coverage-weighted, entropy-dampened debt score",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show only the top N ranked items in text/markdown output",
			},
		},
		Action: runScoreCmd,
	}
}

func priorityLabel(p scorer.Priority) string {
	switch p {
	case scorer.PriorityCritical:
		return "CRITICAL"
	case scorer.PriorityHigh:
		return "HIGH"
	case scorer.PriorityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// debtAdjustmentFromSATD folds a self-admitted-technical-debt scan
// (TODO/FIXME/HACK/XXX markers) into the per-function debt_adjustment
// scalar the scorer reserves 25% of the score for. The scorer stays
// pure (it only sees the scalar); this is the "higher-level heuristic"
// that supplies it. Adjustment is per-file rather than per-function
// since markers aren't reliably attributable to a single enclosing
// function across languages: every function in a file carries that
// file's marker count as its adjustment.
func debtAdjustmentFromSATD(files []string) pipeline.DebtAdjustmentProvider {
	byFile := satd.CountByFile(files)
	if len(byFile) == 0 {
		return nil
	}
	return func(id model.FunctionID) float64 {
		return float64(byFile[id.File])
	}
}

func runScoreCmd(c *cli.Context) error {
	paths := getPaths(c)
	topN := c.Int("top")

	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		var res *config.LoadResult
		if res, err = config.LoadConfig(config.WithPath(path)); err == nil {
			cfg = res.Config
		}
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	scan := scanner.NewScanner(cfg)

	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", path, err)
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	parsed, parseErrs := pipeline.ParseFiles(files)
	for _, e := range parseErrs {
		color.Yellow("skipped: %v", e)
	}

	pconf := pipeline.ConfigFrom(cfg)
	if c.Bool("no-cache") {
		pconf.EntropyCacheCap = 0 // NewCache treats capacity <= 0 as disabled
	}
	result := pipeline.Run(parsed, pconf, nil, debtAdjustmentFromSATD(files))

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(struct {
			Items []aggregate.ScoredItem           `json:"items"`
			Files map[string]*aggregate.FileRollup `json:"files"`
		}{Items: result.Items, Files: result.Files})
	}

	items := result.Items
	if topN > 0 && len(items) > topN {
		items = items[:topN]
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID.File,
			item.ID.Name,
			fmt.Sprintf("%d", item.ID.Line),
			fmt.Sprintf("%.1f", item.Score.Normalized),
			priorityLabel(item.Priority),
			fmt.Sprintf("%d", item.Score.TestsNeeded),
			truncate(item.Score.Recommendation, 60),
		})
	}

	table := output.NewTable(
		"Debt Score",
		[]string{"File", "Function", "Line", "Score", "Priority", "Tests Needed", "Recommendation"},
		rows,
		[]string{
			fmt.Sprintf("Functions: %d", len(result.Items)),
			fmt.Sprintf("Files: %d", len(result.Files)),
		},
		nil,
	)

	return formatter.Output(table)
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run as a Model Context Protocol server over stdio",
		Action: func(c *cli.Context) error {
			srv := mcpserver.NewServer(version)
			return srv.Run(c.Context)
		},
	}
}
