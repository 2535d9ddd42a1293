package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsbuild/pkg/dag"
	"github.com/matzehuels/wsbuild/pkg/dag/transform"
	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/io"
	"github.com/matzehuels/wsbuild/pkg/manifest"
	"github.com/matzehuels/wsbuild/pkg/render/nodelink"
	"github.com/matzehuels/wsbuild/pkg/scheduler"
	"github.com/matzehuels/wsbuild/pkg/topo"
	"github.com/matzehuels/wsbuild/pkg/workspace"
)

// =============================================================================
// list
// =============================================================================

type listFlags struct {
	topological bool
	namesOnly   bool
	pathsOnly   bool
	dependsOn   string
}

func (c *CLI) listCommand() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the packages of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.namesOnly && f.pathsOnly {
				return errors.New(errors.ErrCodeInvalidInput, "--names-only and --paths-only are mutually exclusive")
			}
			ws, err := c.ws.resolved()
			if err != nil {
				return err
			}
			entries, err := c.order(cmd.Context(), ws, nil, nil)
			if err != nil {
				return err
			}
			return listPackages(cmd, entries, f)
		},
	}
	cmd.Flags().BoolVar(&f.topological, "topological-order", false, "list in build order instead of by path")
	cmd.Flags().BoolVar(&f.namesOnly, "names-only", false, "print only the package names")
	cmd.Flags().BoolVar(&f.pathsOnly, "paths-only", false, "print only the package paths")
	cmd.Flags().StringVar(&f.dependsOn, "depends-on", "", "list only packages depending on this one")
	c.registerPackageCompletion(cmd, "depends-on")
	return cmd
}

func listPackages(cmd *cobra.Command, entries []topo.Entry, f listFlags) error {
	out := cmd.OutOrStdout()
	if err := topo.CheckCycle(entries); err != nil && f.topological {
		return err
	}

	var pkgs []topo.Entry
	for _, e := range entries {
		if !e.IsCycle() {
			pkgs = append(pkgs, e)
		}
	}
	if f.dependsOn != "" {
		keep := workspace.DependsOn(entries, f.dependsOn)
		pkgs = slices.DeleteFunc(pkgs, func(e topo.Entry) bool { return !slices.Contains(keep, e.Package.Name) })
	}
	if !f.topological {
		slices.SortFunc(pkgs, func(a, b topo.Entry) int { return strings.Compare(a.Path, b.Path) })
	}

	switch {
	case f.namesOnly:
		for _, e := range pkgs {
			fmt.Fprintln(out, e.Package.Name)
		}
	case f.pathsOnly:
		for _, e := range pkgs {
			fmt.Fprintln(out, e.Path)
		}
	default:
		fmt.Fprintln(out, packageTable(pkgs).Render())
	}
	return nil
}

// packageTable renders packages as a bordered table.
func packageTable(entries []topo.Entry) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Package.Name, e.Path, e.Package.BuildTypeOrDefault(), e.Package.Version})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Path", "Build type", "Version").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return cellStyle.Foreground(colorCyan)
			}
			return cellStyle
		})
}

// =============================================================================
// deps
// =============================================================================

type depsFlags struct {
	build, run, test, doc bool
}

// kinds returns the dependency kinds selected by f; all when none is set.
func (f depsFlags) kinds() []manifest.Kind {
	var kinds []manifest.Kind
	if f.build {
		kinds = append(kinds, manifest.KindBuild, manifest.KindBuildtool, manifest.KindBuildExport, manifest.KindBuildtoolExport)
	}
	if f.run {
		kinds = append(kinds, manifest.KindExec)
	}
	if f.test {
		kinds = append(kinds, manifest.KindTest)
	}
	if f.doc {
		kinds = append(kinds, manifest.KindDoc)
	}
	if len(kinds) == 0 {
		return manifest.Kinds
	}
	return kinds
}

func (c *CLI) depsCommand() *cobra.Command {
	var f depsFlags
	cmd := &cobra.Command{
		Use:               "deps PACKAGE",
		Short:             "Print the declared dependencies of a package",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completePackages,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.ws.resolved()
			if err != nil {
				return err
			}
			entries, err := c.order(cmd.Context(), ws, nil, nil)
			if err != nil {
				return err
			}
			_, p, ok := workspace.PackagesOf(entries).ByName(args[0])
			if !ok {
				msg := fmt.Sprintf("package '%s' not found in the workspace", args[0])
				if s := suggestPackage(args[0], entries); s != "" {
					msg += fmt.Sprintf(" (did you mean '%s'?)", s)
				}
				return errors.New(errors.ErrCodePackageNotFound, "%s", msg)
			}
			for _, name := range workspace.Dependencies(p, f.kinds()...) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&f.build, "build", false, "build, buildtool and export dependencies")
	cmd.Flags().BoolVar(&f.run, "run", false, "exec dependencies and group members")
	cmd.Flags().BoolVar(&f.test, "test", false, "test dependencies")
	cmd.Flags().BoolVar(&f.doc, "doc", false, "doc dependencies")
	return cmd
}

func suggestPackage(name string, entries []topo.Entry) string {
	var names []string
	for _, e := range entries {
		if !e.IsCycle() {
			names = append(names, e.Package.Name)
		}
	}
	return scheduler.Suggest(name, names)
}

// =============================================================================
// order
// =============================================================================

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

func (c *CLI) orderCommand() *cobra.Command {
	var (
		levels   bool
		format   string
		packages []string
		exclude  []string
	)
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the topological order of the workspace",
		Long: `Print the topological order of the workspace.

With --levels packages are grouped so that every package only depends on
packages of earlier groups; the packages of one group can be built in
parallel.

--packages keeps only the named packages in the output; their dependencies
are still resolved against the whole workspace. --exclude removes packages
before dependencies are resolved, as if they were not in the workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.ws.resolved()
			if err != nil {
				return err
			}
			entries, err := c.order(cmd.Context(), ws, packages, exclude)
			if err != nil {
				return err
			}
			return writeOrder(cmd, entries, levels, format)
		},
	}
	cmd.Flags().BoolVar(&levels, "levels", false, "group the order into parallel levels")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	cmd.Flags().StringSliceVar(&packages, "packages", nil, "only order these packages")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "leave these packages out of the workspace")
	c.registerPackageCompletion(cmd, "packages", "exclude")
	return cmd
}

// writeOrder prints entries in format. An ordering that ends in a cycle is
// still written as JSON or YAML, with its cycle members, before the cycle
// error is returned.
func writeOrder(cmd *cobra.Command, entries []topo.Entry, levels bool, format string) error {
	out := cmd.OutOrStdout()
	order, err := io.NewOrder(entries, levels)
	if err != nil {
		return err
	}
	cycleErr := topo.CheckCycle(entries)

	switch format {
	case formatJSON:
		if err := io.WriteJSON(order, out); err != nil {
			return err
		}
		return cycleErr
	case formatYAML:
		if err := io.WriteYAML(order, out); err != nil {
			return err
		}
		return cycleErr
	case formatText:
		if cycleErr != nil {
			return cycleErr
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want %s, %s or %s)", format, formatText, formatJSON, formatYAML)
	}

	if !levels {
		for _, p := range order.Packages {
			fmt.Fprintln(out, p.Name)
		}
		return nil
	}
	for i, level := range order.Levels {
		fmt.Fprintf(out, "%d: %s\n", i, strings.Join(level, " "))
	}
	return nil
}

// =============================================================================
// graph
// =============================================================================

func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		detailed bool
		reduce   bool
		input    string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the dependency graph of the workspace",
		Long: `Print the dependency graph of the workspace as Graphviz DOT, SVG or JSON.

Edges point from a dependency to its dependent. Packages of a dependency
cycle are drawn in red. --reduce drops edges that are implied by a longer
path. --input renders a graph saved earlier with --format json instead of
scanning the workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				g   *dag.DAG
				err error
			)
			if input != "" {
				g, err = readGraph(input)
			} else {
				g, err = c.workspaceGraph(cmd)
			}
			if err != nil {
				return err
			}
			c.layoutGraph(g, reduce)

			out := cmd.OutOrStdout()
			switch format {
			case formatDOT:
				_, err = fmt.Fprint(out, nodelink.ToDOT(g, nodelink.Options{Detailed: detailed}))
			case formatSVG:
				var svg []byte
				if svg, err = nodelink.RenderSVG(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed})); err == nil {
					_, err = out.Write(svg)
				}
			case formatJSON:
				err = io.WriteGraphJSON(g, out)
			default:
				err = errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want %s, %s or %s)", format, formatDOT, formatSVG, formatJSON)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg or json")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show path, version and build type in node labels")
	cmd.Flags().BoolVar(&reduce, "reduce", false, "drop edges implied by a longer dependency path")
	cmd.Flags().StringVarP(&input, "input", "i", "", "render a graph saved with --format json")
	return cmd
}

func (c *CLI) workspaceGraph(cmd *cobra.Command) (*dag.DAG, error) {
	ws, err := c.ws.resolved()
	if err != nil {
		return nil, err
	}
	entries, err := c.order(cmd.Context(), ws, nil, nil)
	if err != nil {
		return nil, err
	}
	var pkgs workspace.Packages
	if topo.CheckCycle(entries) != nil {
		if pkgs, err = c.resolvedPackages(cmd, ws); err != nil {
			return nil, err
		}
	}
	return workspace.Graph(entries, pkgs), nil
}

func readGraph(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open graph %s", path)
	}
	defer f.Close()
	return io.ReadGraphJSON(f)
}

// layoutGraph assigns build levels and, with reduce, removes implied edges.
// Cycle edges are taken out first and put back afterwards, marked, so a
// cyclic workspace keeps its cycle visible.
func (c *CLI) layoutGraph(g *dag.DAG, reduce bool) {
	removed := transform.BreakCycles(g)
	if reduce {
		transform.TransitiveReduction(g)
	}
	transform.AssignLayers(g)
	for _, e := range removed {
		_ = g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: dag.Metadata{"cycle": true}})
	}
	c.Logger.Debug("Laid out graph", "packages", g.NodeCount(), "edges", g.EdgeCount(),
		"levels", g.MaxRow()+1, "cycle_edges", len(removed))
}

// resolvedPackages discovers the primary workspace again with conditions
// evaluated, for drawing the members of a cycle.
func (c *CLI) resolvedPackages(cmd *cobra.Command, ws workspaceFlags) (workspace.Packages, error) {
	pkgs, err := workspace.FindUniquePackages(cmd.Context(), ws.basePath, workspace.DiscoverOptions{
		Exclude: []string{ws.buildSpace, ws.installSpace},
	})
	if err != nil {
		return nil, err
	}
	pkgs, _, err = workspace.Resolve(c.conditionEnv(), pkgs, nil)
	return pkgs, err
}
