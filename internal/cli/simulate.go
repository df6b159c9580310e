package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"pooledlist/internal/listview"
	"pooledlist/internal/scene"
	"pooledlist/internal/shared/pool"
	"pooledlist/internal/shared/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Scroll a synthetic list and report pool activity",
	Long: `Bind a synthetic list to a recycling list view, sweep the scroll position
from top to bottom and print the window after every step, followed by the
pool statistics.

Example:
  pooledlist simulate                          Sweep 1000 rows in 10 steps
  pooledlist simulate --count 50000 --steps 40 Longer list, finer sweep
  pooledlist simulate --warmup 15              Pre-build 15 rows, one per tick
  pooledlist simulate --format yaml            Pool statistics as YAML`,
	RunE: runSimulate,
}

var (
	simCount    int
	simSteps    int
	simExtent   float64
	simViewport float64
	simSnap     string
	simWarmup   int
	simTrim     int
	simFormat   string
)

func init() {
	simulateCmd.Flags().IntVarP(&simCount, "count", "n", 1000, "Number of items in the list")
	simulateCmd.Flags().IntVar(&simSteps, "steps", 10, "Scroll steps from top to bottom")
	simulateCmd.Flags().Float64Var(&simExtent, "element-extent", 0, "Row height (default from config)")
	simulateCmd.Flags().Float64Var(&simViewport, "viewport", 0, "Viewport height (default from config)")
	simulateCmd.Flags().StringVar(&simSnap, "snap", "", "Snap mode: none or items (default from config)")
	simulateCmd.Flags().IntVar(&simWarmup, "warmup", -1, "Instances to pre-build incrementally (default from config)")
	simulateCmd.Flags().IntVar(&simTrim, "trim", -1, "Idle capacity to trim to after the sweep (default from config)")
	simulateCmd.Flags().StringVar(&simFormat, "format", "text", "Statistics format: text or yaml")
	rootCmd.AddCommand(simulateCmd)
}

// simulation is one configured sweep
type simulation struct {
	Count    int
	Steps    int
	Extent   float64
	Viewport float64
	Snap     listview.SnapMode
	Warmup   int
	Trim     int
	Format   string
	Proto    string
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if err := utils.InitLogger(verbose); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sim := simulation{
		Count:    simCount,
		Steps:    simSteps,
		Extent:   cfg.List.ElementExtent,
		Viewport: cfg.List.ViewportExtent,
		Warmup:   cfg.Pool.Warmup,
		Trim:     cfg.Pool.DefaultCapacity,
		Format:   simFormat,
		Proto:    cfg.List.Prototype,
	}
	if simExtent > 0 {
		sim.Extent = simExtent
	}
	if simViewport > 0 {
		sim.Viewport = simViewport
	}
	if simWarmup >= 0 {
		sim.Warmup = simWarmup
	}
	if simTrim >= 0 {
		sim.Trim = simTrim
	}
	snap := cfg.List.Snap
	if simSnap != "" {
		snap = simSnap
	}
	if sim.Snap, err = listview.ParseSnapMode(snap); err != nil {
		return err
	}

	logger := utils.Named("simulate").With(zap.String("run", utils.GenerateShortID()))
	return sim.Run(cmd.Context(), cmd.OutOrStdout(), logger)
}

// Run performs the sweep on the calling goroutine, which acts as the update loop
func (s simulation) Run(ctx context.Context, out io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.Count < 0 {
		return fmt.Errorf("count must not be negative: %d", s.Count)
	}
	if s.Steps < 1 {
		s.Steps = 1
	}

	registry := pool.NewRegistry(pool.WithLogger(logger))
	sched := pool.NewScheduler(0, 0, logger)
	defer sched.Close()

	lifecycle := scene.NewLifecycle(nil)
	p, err := pool.Of[*scene.Node](registry, lifecycle)
	if err != nil {
		return err
	}

	proto := scene.NewNode(s.Proto)
	proto.Height = s.Extent
	proto.Selectable = true

	if s.Warmup > 0 {
		task, err := p.WarmupIncremental(ctx, sched, proto, s.Warmup, nil)
		if err != nil {
			return err
		}
		ticks := 0
		for task.State() == pool.TaskRunning {
			sched.Tick()
			ticks++
		}
		if err := task.Err(); err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
		fmt.Fprintf(out, "Warmed up %d instances in %d ticks\n\n", p.FreeCount(proto), ticks)
	}

	content := scene.NewContent(scene.NewNode("Content"), s.Viewport)
	bar := listview.NewScrollBar(1)
	rec, err := listview.New(p, proto, listview.Options[*scene.Node]{
		ElementExtent: s.Extent,
		Snapping:      s.Snap,
		Layout:        content,
		Scroll:        bar,
		Bind: func(index int, n *scene.Node) {
			n.Name = fmt.Sprintf("%s %d", s.Proto, index)
			n.Data = index
		},
		Navigate: func(n, prev, next *scene.Node) { scene.Link(n, prev, next) },
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	rec.Track(bar)

	if err := rec.Bind(listview.Count(s.Count)); err != nil {
		return err
	}

	fmt.Fprintf(out, "%-6s  %-8s  %-8s  %-14s  %-10s  %-12s  %s\n", "STEP", "SCROLL", "RAW", "WINDOW", "LEADING", "TRAILING", "BUILT")
	s.printWindow(out, 0, rec.Window(), lifecycle.Built())
	for step := 1; step <= s.Steps; step++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bar.SetValue(1 - float64(step)/float64(s.Steps))
		sched.Tick()
		s.printWindow(out, step, rec.Window(), lifecycle.Built())
	}

	rec.Clear()
	destroyed, err := registry.TrimAll(s.Trim)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nReleased the window and trimmed %d idle instances (capacity %d)\n\n", destroyed, s.Trim)

	return printStats(out, registry.Snapshot(), s.Format)
}

func (s simulation) printWindow(out io.Writer, step int, w listview.Window, built int) {
	fmt.Fprintf(out, "%-6d  %-8.4f  %-8.2f  %-14s  %-10.1f  %-12.1f  %d\n",
		step, w.Scroll, w.RawIndex, fmt.Sprintf("[%d,%d)", w.Start, w.End), w.Leading, w.Trailing, built)
}

// statLine pairs a pool entry with its type for tree rendering
type statLine struct {
	Type  string
	Entry pool.EntryStats
}

func printStats(out io.Writer, stats []pool.TypeStats, format string) error {
	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(stats)
	case "", "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	var lines []statLine
	for _, ts := range stats {
		for _, e := range ts.Entries {
			lines = append(lines, statLine{Type: ts.Type, Entry: e})
		}
	}
	if len(lines) == 0 {
		fmt.Fprintln(out, "No pools")
		return nil
	}

	tree := utils.BuildTree(lines, func(l statLine) string {
		return l.Type + "|" + l.Entry.Key
	}, "|")
	tree.Print(out, func(l statLine) string {
		capacity := fmt.Sprintf("%d", l.Entry.Capacity)
		if !l.Entry.CapacitySet {
			capacity += " (default)"
		}
		return fmt.Sprintf("free %d, checked out %d, capacity %s", l.Entry.Free, l.Entry.CheckedOut, capacity)
	})
	return nil
}
