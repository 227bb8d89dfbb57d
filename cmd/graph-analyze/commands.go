package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/analysis"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "graph-analyze",
		Short:         "Graph analytics for the knowledge vault",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file path (YAML or JSON)")
	flags.StringVar(&a.graphPath, "graph", "", "Graph document (YAML or JSON) to analyze")
	flags.StringVar(&a.vaultPath, "vault", "", "SQLite vault database; graph source and default result sink")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.jsonOut, "json", false, "Output results as JSON")
	flags.BoolVar(&a.printMetrics, "print-metrics", false, "Print Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newDensityCmd(a),
		newCentralityCmd(a),
		newCommunitiesCmd(a),
		newAllCmd(a),
		newResultsCmd(a),
		newImportCmd(a),
		newBrowseCmd(a),
		newHealthCmd(a),
	)
	return rootCmd
}

func newDensityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "density",
		Short: "Report vertex count, edge count and density",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.service.GetDensityAndCounts(vertices, edges)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDensity(report))
			return nil
		},
	}
}

func newCentralityCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:       "centrality <algorithm>",
		Short:     "Score every vertex with a centrality algorithm",
		Long:      "Algorithms: " + joinNames(algorithms.CentralityAlgorithms),
		Args:      cobra.ExactArgs(1),
		ValidArgs: namesOf(algorithms.CentralityAlgorithms),
		RunE: func(cmd *cobra.Command, args []string) error {
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			scores, err := a.service.RunCentrality(cmd.Context(), vertices, edges, args[0])
			if err != nil {
				return err
			}
			ranked := rankAll(scores, top)
			if a.jsonOut {
				return a.writeJSON(cmd.OutOrStdout(), ranked)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRanking(args[0], ranked))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Show the N highest scoring vertices (0 = all)")
	return cmd
}

func newCommunitiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "communities [algorithm]",
		Short:     "Partition the vault into communities",
		Long:      "Algorithms: " + joinNames(algorithms.CommunityAlgorithms) + " (default louvain)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: namesOf(algorithms.CommunityAlgorithms),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := string(algorithms.LouvainAlgorithm)
			if len(args) == 1 {
				name = args[0]
			}
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.service.DetectCommunities(cmd.Context(), vertices, edges, name)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCommunities(result))
			return nil
		},
	}
}

func newAllCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run density, every centrality and Louvain in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.service.RunAll(cmd.Context(), vertices, edges)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.writeJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderDensity(report.Density))
			for _, alg := range algorithms.CentralityAlgorithms {
				fmt.Fprintln(out, renderRanking(string(alg), rankAll(report.Centrality[alg], top)))
			}
			fmt.Fprintln(out, renderCommunities(report.Communities))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "Vertices shown per ranking (0 = all)")
	return cmd
}

func newResultsCmd(a *app) *cobra.Command {
	var analysisType string

	cmd := &cobra.Command{
		Use:   "results <metric>",
		Short: "Show the latest persisted results of a metric",
		Long:  "For --type community the argument is the community algorithm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if analysisType == analysis.TypeCommunity && args[0] != analysis.MetricModularity {
				assignments, err := a.service.Communities(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.writeJSON(out, assignments)
				}
				fmt.Fprintln(out, renderAssignments(args[0], assignments))
				return nil
			}

			rows, err := a.service.Results(ctx, analysisType, args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.writeJSON(out, rows)
			}
			fmt.Fprintln(out, renderResults(args[0], rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&analysisType, "type", analysis.TypeCentrality, "Analysis type (centrality or community)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Validate a graph document and store it in the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.graphPath == "" || a.vault == nil {
				return fmt.Errorf("import needs both --graph and --vault")
			}
			vertices, edges, err := a.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			// Reject anything the analyses would reject before writing.
			report, err := a.service.GetDensityAndCounts(vertices, edges)
			if err != nil {
				return err
			}
			if err := a.vault.SaveGraph(cmd.Context(), vertices, edges); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d vertices and %d edges into %s\n",
				report.VertexCount, report.EdgeCount, a.vaultPath)
			return nil
		},
	}
}

func rankAll(scores map[string]float64, top int) []algorithms.RankedVertex {
	if top <= 0 || top > len(scores) {
		top = len(scores)
	}
	return algorithms.TopN(scores, top)
}

func namesOf[T ~string](algs []T) []string {
	names := make([]string, len(algs))
	for i, alg := range algs {
		names[i] = string(alg)
	}
	return names
}

func joinNames[T ~string](algs []T) string {
	return strings.Join(namesOf(algs), ", ")
}
