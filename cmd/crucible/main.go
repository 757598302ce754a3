// Command crucible runs deterministic simulations of class and territorial
// relations, and inspects their stored runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/setomorph/crucible/internal/api"
	"github.com/setomorph/crucible/internal/chronicle"
	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/engine"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/scenario"
	"github.com/setomorph/crucible/internal/state"
	"github.com/setomorph/crucible/internal/store"
	"github.com/setomorph/crucible/internal/topology"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "crucible",
		Short: "Deterministic simulation of class and territorial relations",
		Long: `Crucible runs a tick-based simulation of class units bound by extraction,
wage, tribute and solidarity relations across a territory graph. Every run
is deterministic per seed, and every event is persisted for inspection.`,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newInspectCmd(),
		newChronicleCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(rt config.Runtime) {
	opts := &slog.HandlerOptions{Level: rt.SlogLevel()}
	var handler slog.Handler
	if rt.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(path string) (*store.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return store.Open(path)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "Run a simulation from a scenario file or a generated demo world",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			seed, _ := cmd.Flags().GetInt64("seed")
			ticks, _ := cmd.Flags().GetUint64("ticks")
			dbPath, _ := cmd.Flags().GetString("db")
			apiAddr, _ := cmd.Flags().GetString("api")
			interval, _ := cmd.Flags().GetDuration("interval")
			noStore, _ := cmd.Flags().GetBool("no-store")

			rt, err := config.LoadRuntime()
			if err != nil {
				return err
			}
			setupLogging(rt)
			if dbPath == "" {
				dbPath = rt.DBPath
			}
			if apiAddr == "" {
				apiAddr = rt.APIAddr
			}

			tun := config.DefaultTunables()
			name := "demo"
			var initial state.Snapshot
			switch {
			case len(args) == 1:
				file, err := scenario.Load(args[0])
				if err != nil {
					return err
				}
				tun = file.Tunables
				if file.Name != "" {
					name = file.Name
				} else {
					name = filepath.Base(args[0])
				}
				initial, err = file.Snapshot()
				if err != nil {
					return err
				}
			case demo:
				initial, err = scenario.Generate(seed, scenario.Options{})
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide a scenario file or --demo")
			}

			drv := engine.NewDriver(tun, seed, slog.Default())

			var db *store.DB
			if !noStore {
				db, err = openStore(dbPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
				if err := db.CreateRun(drv.RunID(), seed, name, tun); err != nil {
					return fmt.Errorf("register run: %w", err)
				}
				if err := db.SaveSnapshot(drv.RunID(), initial); err != nil {
					return fmt.Errorf("save initial state: %w", err)
				}
				slog.Info("database opened", "path", dbPath, "run_id", drv.RunID())
			}

			var srv *api.Server
			if apiAddr != "" {
				srv = &api.Server{
					RunID:    drv.RunID(),
					Addr:     apiAddr,
					Throttle: api.NewThrottle(30, time.Minute),
				}
				srv.Publish(initial, drv.Topology())
				srv.Start()
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				slog.Info("received signal, shutting down", "signal", sig)
				cancel()
			}()

			// Store and API failures are logged, never allowed to stop the run.
			drv.OnSnapshot = func(snap state.Snapshot, rec topology.Record) {
				if srv != nil {
					srv.Publish(snap, rec)
				}
				if db != nil {
					if err := db.AppendEvents(drv.RunID(), snap.EventsSince(snap.Tick-1)); err != nil {
						slog.Error("event append failed", "tick", snap.Tick, "error", err)
					}
					if tun.CheckpointInterval > 0 && snap.Tick%tun.CheckpointInterval == 0 {
						if err := db.SaveSnapshot(drv.RunID(), snap); err != nil {
							slog.Error("checkpoint failed", "tick", snap.Tick, "error", err)
						}
					}
				}
				if interval > 0 {
					select {
					case <-time.After(interval):
					case <-ctx.Done():
					}
				}
			}

			fmt.Printf("Run %s: %d entities, seed %d, %s ticks ahead. (Ctrl+C to stop)\n",
				drv.RunID(), len(initial.Entities), seed, humanize.Comma(int64(ticks)))
			if apiAddr != "" {
				fmt.Printf("API: http://localhost%s/api/v1/status\n", apiAddr)
			}

			final, err := drv.Run(ctx, initial, ticks)
			if err != nil {
				return fmt.Errorf("run %s: %w", drv.RunID(), err)
			}

			if db != nil {
				if err := db.SaveSnapshot(drv.RunID(), final); err != nil {
					slog.Error("final save failed", "error", err)
				}
			}

			fmt.Printf("Stopped at tick %d: %d active entities, network phase %s.\n",
				final.Tick, final.ActiveCount(), drv.Topology().Phase)
			return nil
		},
	}

	cmd.Flags().Bool("demo", false, "Generate a demo world from the seed instead of loading a scenario")
	cmd.Flags().Int64("seed", 42, "Deterministic run seed")
	cmd.Flags().Uint64("ticks", 500, "Number of ticks to simulate")
	cmd.Flags().String("db", "", "SQLite database path (default from CRUCIBLE_DB)")
	cmd.Flags().String("api", "", "HTTP API listen address, e.g. :8080 (default from CRUCIBLE_API_ADDR)")
	cmd.Flags().Duration("interval", 0, "Pause between ticks (0 runs flat out)")
	cmd.Flags().Bool("no-store", false, "Skip database persistence")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [run-id]",
		Short: "Summarize stored runs, or one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")

			rt, err := config.LoadRuntime()
			if err != nil {
				return err
			}
			setupLogging(rt)
			if dbPath == "" {
				dbPath = rt.DBPath
			}
			db, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if len(args) == 0 {
				return listRuns(db)
			}
			return inspectRun(db, args[0])
		},
	}
	cmd.Flags().String("db", "", "SQLite database path (default from CRUCIBLE_DB)")
	return cmd
}

func listRuns(db *store.DB) error {
	runs, err := db.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored yet. Start one with 'crucible run'.")
		return nil
	}
	fmt.Printf("%-38s %-12s %-24s %-12s %s\n", "RUN", "SEED", "SCENARIO", "LAST TICK", "STARTED")
	for _, ri := range runs {
		last, err := db.LatestTick(ri.RunID)
		if err != nil {
			return err
		}
		fmt.Printf("%-38s %-12d %-24s %-12s %s\n",
			ri.RunID, ri.Seed, ri.Scenario,
			humanize.Comma(int64(last)), humanize.Time(time.Unix(ri.CreatedAt, 0)))
	}
	return nil
}

func inspectRun(db *store.DB, runID string) error {
	last, err := db.LatestTick(runID)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	snap, err := db.LoadSnapshot(runID, last)
	if err != nil {
		return fmt.Errorf("load checkpoint %d: %w", last, err)
	}

	var population int64
	var wealth float64
	classes, territories, retired := 0, 0, 0
	for _, e := range snap.Entities {
		switch {
		case !e.Active:
			retired++
		case e.Class():
			classes++
			population += e.Population
			wealth += e.Wealth
		default:
			territories++
		}
	}

	fmt.Printf("Run %s at tick %s\n", runID, humanize.Comma(int64(snap.Tick)))
	fmt.Printf("  %d class units, %d territories, %d retired\n", classes, territories, retired)
	fmt.Printf("  population %s, wealth %s\n",
		humanize.Comma(population), humanize.CommafWithDigits(wealth, 1))

	counts := make(map[event.Category]int)
	for _, ev := range snap.Events {
		counts[ev.Category()]++
	}
	fmt.Printf("  %s events:\n", humanize.Comma(int64(len(snap.Events))))
	order := []event.Category{
		event.CategoryEconomic,
		event.CategoryConsciousness,
		event.CategoryStruggle,
		event.CategoryContradiction,
		event.CategoryMortality,
		event.CategoryTopology,
	}
	for _, cat := range order {
		if counts[cat] > 0 {
			fmt.Printf("    %-14s %s\n", cat, humanize.Comma(int64(counts[cat])))
		}
	}

	for i := len(snap.Events) - 1; i >= 0; i-- {
		ev := snap.Events[i]
		if ev.Category() != event.CategoryTopology {
			continue
		}
		if line, ok := chronicle.Describe(snap, ev); ok {
			fmt.Printf("  last topology reading (tick %d): %s\n", ev.Tick, line)
		}
		break
	}
	return nil
}

func newChronicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chronicle <run-id>",
		Short: "Render a stored run's event log as a dispatch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromTick, _ := cmd.Flags().GetUint64("from")
			toTick, _ := cmd.Flags().GetUint64("to")
			category, _ := cmd.Flags().GetString("category")
			dbPath, _ := cmd.Flags().GetString("db")

			rt, err := config.LoadRuntime()
			if err != nil {
				return err
			}
			setupLogging(rt)
			if dbPath == "" {
				dbPath = rt.DBPath
			}
			db, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			runID := args[0]
			last, err := db.LatestTick(runID)
			if err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}
			snap, err := db.LoadSnapshot(runID, last)
			if err != nil {
				return fmt.Errorf("load checkpoint %d: %w", last, err)
			}

			if toTick == 0 || toTick > snap.Tick {
				toTick = snap.Tick
			}
			if fromTick == 0 {
				fromTick = 1
			}
			if category != "" {
				var kept []event.Event
				for _, ev := range snap.Events {
					if string(ev.Category()) == category {
						kept = append(kept, ev)
					}
				}
				snap.Events = kept
			}

			fmt.Print(chronicle.Render(snap, fromTick, toTick))
			return nil
		},
	}
	cmd.Flags().Uint64("from", 0, "First tick to include (default 1)")
	cmd.Flags().Uint64("to", 0, "Last tick to include (default: latest checkpoint)")
	cmd.Flags().String("category", "", "Only include one event category (economic, struggle, ...)")
	cmd.Flags().String("db", "", "SQLite database path (default from CRUCIBLE_DB)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("crucible version %s\n", version)
		},
	}
}
