// Package main provides a CLI command for extracting catalog skills from text.
// Usage: skillgap-extract "text" [--role ID] [--output json]
//
// Text may also be piped on stdin by passing "-". With --role the extracted
// skills are scored against the role benchmark.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"skillgap-ai/internal/config"
	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/domain/gap"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/infra/catalog"
	"skillgap-ai/internal/infra/llm"
	"skillgap-ai/internal/observability/logging"
	"skillgap-ai/internal/resilience/circuitbreaker"
	"skillgap-ai/internal/usecase/skills"
	"skillgap-ai/pkg/ratelimit"
)

// maxInputBytes bounds text read from stdin.
const maxInputBytes = 1 << 20

// errAnalysisFailed maps to exit status 2.
var errAnalysisFailed = errors.New("gap analysis failed")

// ExtractOutput is the JSON output format.
type ExtractOutput struct {
	Extraction entity.ResultEnvelope[entity.ExtractionResult] `json:"extraction"`
	Analysis   *entity.ResultEnvelope[entity.GapAnalysis]     `json:"analysis,omitempty"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, errAnalysisFailed) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		roleID       string
		outputFormat string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "skillgap-extract [text | -]",
		Short: "Extract catalog skills from free text",
		Long: `Extract skills from free text and match them against the skill catalog.

With --role the extracted skills are also scored against the role benchmark.
Pass "-" to read the text from stdin.`,
		Example: `  skillgap-extract "Five years of Go and PostgreSQL"
  skillgap-extract --role backend-engineer "Python, Docker, some Kubernetes"
  cat resume.txt | skillgap-extract --output json -`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "text" && outputFormat != "json" {
				return fmt.Errorf("unknown output format %q", outputFormat)
			}
			text, err := readText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), text, roleID, outputFormat, timeout)
		},
	}

	cmd.Flags().StringVar(&roleID, "role", "", "Role ID to analyze the extracted skills against")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	return cmd
}

func run(ctx context.Context, text, roleID, outputFormat string, timeout time.Duration) error {
	cfg, err := config.LoadAIConfig()
	if err != nil {
		return err
	}
	logger := logging.NewTextLogger(os.Stderr, cfg.Observability.LogLevel)
	slog.SetDefault(logger)

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load skill catalog: %w", err)
	}

	svc := newService(cfg, cat)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := ExtractOutput{Extraction: svc.ExtractSkills(ctx, skills.ExtractRequest{Text: text})}
	if roleID != "" {
		analysis := svc.AnalyzeGaps(ctx, skills.AnalyzeRequest{
			Skills: userSkills(out.Extraction.Data),
			RoleID: roleID,
		})
		out.Analysis = &analysis
	}

	if outputFormat == "json" {
		if err := outputJSON(os.Stdout, out); err != nil {
			return err
		}
	} else {
		outputText(out)
	}

	if out.Analysis != nil && !out.Analysis.Success {
		return errAnalysisFailed
	}
	return nil
}

func readText(stdin io.Reader, args []string) (string, error) {
	if args[0] != "-" {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxInputBytes))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// newService wires the orchestrator with a memory-only cache.
func newService(cfg *config.AIConfig, cat *catalog.Catalog) *skills.Service {
	var transport llm.Transport
	if cfg.LLM.Provider == llm.ProviderAnthropic {
		transport = llm.NewClaudeTransport(cfg.LLM, &http.Client{})
	} else {
		transport = llm.NewOpenAITransport(cfg.LLM, &http.Client{})
	}
	client := llm.NewClient(cfg.LLM, transport, circuitbreaker.New(cfg.BreakerConfig()))

	return skills.NewService(client,
		cache.NewManager(cfg.CacheManagerConfig(), nil),
		cat, gap.NewScorer(cat.Skill),
		skills.WithLimiter(ratelimit.NewCallLimiter(cfg.RateLimit)))
}

// userSkills keeps the catalog-matched skills, taking the highest level
// when a skill was found more than once.
func userSkills(res entity.ExtractionResult) []entity.UserSkill {
	levels := make(map[string]int)
	var order []string
	for _, s := range res.Skills {
		if s.SkillID == nil {
			continue
		}
		id := *s.SkillID
		if _, seen := levels[id]; !seen {
			order = append(order, id)
		}
		levels[id] = max(levels[id], s.Level)
	}

	out := make([]entity.UserSkill, 0, len(order))
	for _, id := range order {
		out = append(out, entity.UserSkill{SkillID: id, Level: levels[id]})
	}
	return out
}

// outputText prints results in human-readable format.
func outputText(out ExtractOutput) {
	ext := out.Extraction
	source := "model"
	switch {
	case ext.Meta.CacheHit:
		source = "cache"
	case ext.Meta.Fallback:
		source = "local fallback"
	}
	fmt.Printf("Skills (%d, via %s):\n", len(ext.Data.Skills), source)
	for _, s := range ext.Data.Skills {
		name := s.Name
		if s.MatchedName != nil {
			name = *s.MatchedName
		}
		fmt.Printf("  - %s  level %d  confidence %.0f%%\n", name, s.Level, s.Confidence*100)
		if s.Evidence != "" {
			fmt.Printf("      %q\n", s.Evidence)
		}
	}
	if ext.Meta.UpstreamError != nil {
		fmt.Printf("\nUpstream: %s (%s)\n", ext.Meta.UpstreamError.Message, ext.Meta.UpstreamError.Code)
	}

	if out.Analysis == nil {
		return
	}
	a := out.Analysis
	fmt.Println()
	if !a.Success {
		fmt.Printf("Analysis failed: %s\n", a.Error.Message)
		return
	}
	fmt.Printf("Readiness for %s: %d%%\n", a.Data.RoleName, a.Data.Readiness)
	for _, g := range a.Data.Gaps {
		fmt.Printf("  gap  %-24s %d -> %d  (%s)\n", g.Name, g.CurrentLevel, g.RequiredLevel, g.Severity)
	}
	for _, s := range a.Data.Strengths {
		fmt.Printf("  ok   %-24s %d >= %d\n", s.Name, s.CurrentLevel, s.RequiredLevel)
	}
}

// outputJSON prints results in JSON format.
func outputJSON(w io.Writer, out ExtractOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
