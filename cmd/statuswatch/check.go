package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rajasatyajit/StatusWatch/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle   = lipgloss.NewStyle().Width(14)

	statusStyles = map[models.ServiceStatus]lipgloss.Style{
		models.StatusOperational: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		models.StatusMaintenance: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		models.StatusDegraded:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		models.StatusIssues:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		models.SeverityMajor:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.SeverityMinor:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		models.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

type checkOptions struct {
	incidents int
	asJSON    bool
	timeout   time.Duration
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one aggregation pass and print provider status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			agg, _, err := newAggregator(cfg, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()

			snap, err := agg.Aggregate(ctx)
			if err != nil {
				return fmt.Errorf("aggregate: %w", err)
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			renderSnapshot(cmd.OutOrStdout(), snap, opts.incidents)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.incidents, "incidents", 10, "number of recent incidents to show")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline for the pass")

	return cmd
}

// renderSnapshot prints one line per provider followed by the newest incidents.
func renderSnapshot(w io.Writer, snap models.Snapshot, incidents int) {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Service status"))
	b.WriteString(dimStyle.Render("  " + snap.GeneratedAt.Format(time.RFC3339)))
	b.WriteString("\n")

	for _, s := range snap.Summaries {
		style, ok := statusStyles[s.Status]
		if !ok {
			style = lipgloss.NewStyle()
		}
		line := nameStyle.Render(s.Name) + " " + style.Render(string(s.Status))
		if s.IncidentCount > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d recent)", s.IncidentCount))
		}
		b.WriteString(line + "\n")
	}

	if incidents > 0 && len(snap.Incidents) > 0 {
		b.WriteString("\n" + headerStyle.Render("Recent incidents") + "\n")
		for i, inc := range snap.Incidents {
			if i >= incidents {
				break
			}
			sev, ok := severityStyles[inc.Severity]
			if !ok {
				sev = lipgloss.NewStyle()
			}
			b.WriteString(fmt.Sprintf("%s %s %s %s\n",
				dimStyle.Render(inc.ReportedAt.Format("2006-01-02 15:04")),
				sev.Render(fmt.Sprintf("%-8s", inc.Severity)),
				nameStyle.Render(string(inc.Provider)),
				inc.Title,
			))
		}
	}

	fmt.Fprint(w, b.String())
}
