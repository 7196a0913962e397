package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a health check over the lineage catalog",
		Long: `Analyze the lineage catalog for structural problems.

The doctor command loads every stored edge and reports:
- Catalog summary (schema version, tables, nodes, edges, depth)
- Health checks (cycles, self-referencing tables, edges without payload)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  leaplineage doctor

  # Output as JSON
  leaplineage doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         CatalogSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// CatalogSummary contains catalog-level statistics.
type CatalogSummary struct {
	SchemaVersion int64 `json:"schema_version"`
	Tables        int   `json:"tables"`
	Nodes         int   `json:"nodes"`
	Edges         int   `json:"edges"`
	Depth         int   `json:"depth"`
	RootCount     int   `json:"root_count"`
	LeafCount     int   `json:"leaf_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	version, err := cmdCtx.Store.MigrationVersion()
	if err != nil {
		return err
	}

	g, err := cmdCtx.LoadGraph(cmd)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if g.EdgeCount() == 0 {
		r.Warning("No lineage edges in catalog")
	}

	out := buildDoctorOutput(g, version)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	return nil
}

func buildDoctorOutput(g *lineage.Graph, version int64) *DoctorOutput {
	summary := CatalogSummary{
		SchemaVersion: version,
		Nodes:         g.NodeCount(),
		Edges:         g.EdgeCount(),
	}

	tables := make(map[core.TableRef]struct{})
	for _, n := range g.Nodes() {
		tables[n.Ref()] = struct{}{}
		if g.InDegree(n) == 0 {
			summary.RootCount++
		}
		if g.OutDegree(n) == 0 {
			summary.LeafCount++
		}
	}
	summary.Tables = len(tables)

	checks := []HealthCheck{
		checkAcyclic(g, &summary),
		checkSelfReferences(g),
		checkPayloads(g),
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].RuleID < checks[j].RuleID })

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Edges),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

// checkAcyclic lays out the whole graph and records its depth.
func checkAcyclic(g *lineage.Graph, summary *CatalogSummary) HealthCheck {
	check := HealthCheck{RuleID: "LC01", Name: "Lineage is acyclic", Status: "pass"}

	layout, err := g.Layout()
	if err == nil {
		summary.Depth = len(layout.Phases)
		return check
	}

	var cyc *lineage.CyclicGraphError
	if errors.As(err, &cyc) {
		names := make([]string, len(cyc.Cycle))
		for i, n := range cyc.Cycle {
			names[i] = n.String()
		}
		check.Status = "error"
		check.IssueCount = len(cyc.Remaining)
		check.Details = []string{strings.Join(names, " -> ")}
	}
	return check
}

// checkSelfReferences flags edges whose endpoints belong to the same table.
func checkSelfReferences(g *lineage.Graph) HealthCheck {
	check := HealthCheck{RuleID: "LC02", Name: "No self-referencing tables", Status: "pass"}
	for _, e := range g.Edges() {
		if e.Source.Ref() == e.Target.Ref() {
			check.IssueCount++
			check.Details = append(check.Details, e.Source.String()+" -> "+e.Target.String())
		}
	}
	if check.IssueCount > 0 {
		check.Status = "warn"
	}
	return check
}

// checkPayloads flags edges recorded without any payload.
func checkPayloads(g *lineage.Graph) HealthCheck {
	check := HealthCheck{RuleID: "LC03", Name: "Edges carry a payload", Status: "pass"}
	for _, e := range g.Edges() {
		if len(e.Payload) == 0 {
			check.IssueCount++
			check.Details = append(check.Details, e.Source.String()+" -> "+e.Target.String())
		}
	}
	if check.IssueCount > 0 {
		check.Status = "warn"
	}
	return check
}

// calculateHealthScore computes a health score from 0-100.
// Larger catalogs dilute the penalty of each individual issue.
func calculateHealthScore(checks []HealthCheck, edgeCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if edgeCount > 10 {
		basePenalty = 3.0
	}
	if edgeCount > 50 {
		basePenalty = 2.0
	}
	if edgeCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2 // Errors count double
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "LC01":
		return "Break lineage cycles; layouts cannot be computed for affected tables"
	case "LC02":
		return "Check extractor output for tables that feed themselves"
	case "LC03":
		return "Record the producing statement in each edge payload"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Lineage Catalog Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Catalog Summary"))
	r.Println(fmt.Sprintf("   Schema version: %d | Tables: %d | Nodes: %d | Edges: %d",
		out.Summary.SchemaVersion, out.Summary.Tables, out.Summary.Nodes, out.Summary.Edges))
	r.Println(fmt.Sprintf("   Depth: %d phases | Roots: %d | Leaves: %d",
		out.Summary.Depth, out.Summary.RootCount, out.Summary.LeafCount))
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	for _, check := range out.HealthChecks {
		icon := styles.Success.Render("✓")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Println(fmt.Sprintf("   Health Score: %s", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score))))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Println(fmt.Sprintf("   %d. %s", i+1, rec))
		}
		r.Println("")
	}
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Header(1, "Lineage Catalog Health Report")

	r.Header(2, "Catalog Summary")
	r.Println(fmt.Sprintf("- **Schema version**: %d", out.Summary.SchemaVersion))
	r.Println(fmt.Sprintf("- **Tables**: %d", out.Summary.Tables))
	r.Println(fmt.Sprintf("- **Nodes**: %d", out.Summary.Nodes))
	r.Println(fmt.Sprintf("- **Edges**: %d", out.Summary.Edges))
	r.Println(fmt.Sprintf("- **Depth**: %d phases", out.Summary.Depth))
	r.Println(fmt.Sprintf("- **Roots**: %d", out.Summary.RootCount))
	r.Println(fmt.Sprintf("- **Leaves**: %d", out.Summary.LeafCount))
	r.Println("")

	r.Header(2, "Health Checks")
	for _, check := range out.HealthChecks {
		line := fmt.Sprintf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.RuleID, check.Name)
		if check.IssueCount > 0 {
			line += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println(line)
		for _, detail := range check.Details {
			r.Println("  - " + detail)
		}
	}
	r.Println("")

	r.Header(2, "Health Score")
	r.Println(fmt.Sprintf("**%d/100**", out.Score))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Header(2, "Recommendations")
		for i, rec := range out.Recommendations {
			r.Println(fmt.Sprintf("%d. %s", i+1, rec))
		}
		r.Println("")
	}
}
