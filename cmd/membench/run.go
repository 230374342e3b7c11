package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/memkit/memstats"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	runGoroutines int
	runAllocs     int
	runMean       float64
	runStddev     float64
	runLive       int
	runPhases     int
	runBins       int
	runAlphabet   string
	runStackDepth int
	runSeed       uint64
	runPprofPath  string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runGoroutines, "goroutines", 4, "Concurrent allocating goroutines")
	cmd.Flags().IntVar(&runAllocs, "allocs", 10000, "Allocations per goroutine per phase")
	cmd.Flags().Float64Var(&runMean, "mean", 512, "Mean allocation size in bytes")
	cmd.Flags().Float64Var(&runStddev, "stddev", 256, "Standard deviation of allocation sizes")
	cmd.Flags().IntVar(&runLive, "live", 64, "Blocks each goroutine keeps live before freeing the oldest")
	cmd.Flags().IntVar(&runPhases, "phases", 1, "Workload phases, one report per phase")
	cmd.Flags().IntVar(&runBins, "bins", memstats.DefaultBins, "Histogram buckets per report line")
	cmd.Flags().StringVar(&runAlphabet, "alphabet", "box", "Histogram symbol set (see 'membench alphabets')")
	cmd.Flags().IntVar(&runStackDepth, "stack-depth", 0, "Call frames captured per event, 0 disables")
	cmd.Flags().Uint64Var(&runSeed, "seed", 1, "Seed for the size distribution")
	cmd.Flags().StringVar(&runPprofPath, "pprof", "", "Write a pprof profile of the final phase to this file")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run an allocation workload and print its reports",
		Long: `The run command spawns goroutines that allocate normally-distributed
block sizes through a tracking allocator, then prints one histogram report
per phase.

Example:
  membench run
  membench run --goroutines 8 --allocs 50000 --phases 3
  membench run --alphabet shadow --bins 31 --stack-depth 8 --pprof mem.pb.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

// RunSummary is the machine-readable result of a workload run.
type RunSummary struct {
	Goroutines      int
	Phases          int
	Allocations     uint64
	Bytes           uint64
	Dropped         uint64
	DurationMS      int64
	EventsPerSecond float64
}

func runBench() error {
	alphabet, err := memstats.AlphabetByName(runAlphabet)
	if err != nil {
		return err
	}
	if runGoroutines < 1 || runAllocs < 1 || runPhases < 1 {
		return fmt.Errorf("goroutines, allocs, and phases must all be positive")
	}

	eng, err := memstats.New(memstats.Options{
		EnableProcess:    true,
		EnableGoroutines: true,
		SkipExitReport:   true,
		Alphabet:         alphabet,
		Bins:             runBins,
		StackDepth:       runStackDepth,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			printError("engine close: %v\n", err)
		}
	}()

	alloc := memstats.NewTrackingAllocator(memstats.HeapAllocator{}, eng)

	printVerbose("Running %d phase(s): %d goroutines x %d allocations\n",
		runPhases, runGoroutines, runAllocs)

	var totalBytes atomic.Uint64
	start := time.Now()
	for phase := 1; phase <= runPhases; phase++ {
		var wg sync.WaitGroup
		for w := range runGoroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				workload(alloc, rand.NewPCG(runSeed, uint64(phase)<<32|uint64(w)), &totalBytes)
			}()
		}
		wg.Wait()

		if err := eng.Report(fmt.Sprintf("phase %d", phase)); err != nil {
			return fmt.Errorf("phase %d report: %w", phase, err)
		}
	}
	elapsed := time.Since(start)

	if runPprofPath != "" {
		if err := writeProfileFile(eng, runPprofPath); err != nil {
			return err
		}
		printVerbose("Wrote profile: %s\n", runPprofPath)
	}

	allocations := uint64(runPhases) * uint64(runGoroutines) * uint64(runAllocs)
	summary := RunSummary{
		Goroutines:      runGoroutines,
		Phases:          runPhases,
		Allocations:     allocations,
		Bytes:           totalBytes.Load(),
		Dropped:         eng.Dropped(),
		DurationMS:      elapsed.Milliseconds(),
		EventsPerSecond: float64(2*allocations) / elapsed.Seconds(),
	}

	if jsonOut {
		return printJSON(summary)
	}

	p := message.NewPrinter(language.English)
	printInfo("\nRun Summary:\n")
	printInfo("  Goroutines: %d\n", summary.Goroutines)
	printInfo("  Phases: %d\n", summary.Phases)
	printInfo("  Allocations: %s (%s bytes)\n",
		p.Sprintf("%d", summary.Allocations), p.Sprintf("%d", summary.Bytes))
	if summary.Dropped > 0 {
		printInfo("  Dropped events: %s\n", p.Sprintf("%d", summary.Dropped))
	}
	printInfo("  Duration: %s\n", elapsed.Round(time.Millisecond))
	printInfo("  Throughput: %s events/s\n", p.Sprintf("%.0f", summary.EventsPerSecond))
	return nil
}

// workload allocates runAllocs blocks with normally distributed sizes,
// keeping at most runLive of them alive so frees interleave with
// allocations the way real traffic does.
func workload(alloc memstats.Allocator, src *rand.PCG, totalBytes *atomic.Uint64) {
	rng := rand.New(src)
	live := make([][]byte, 0, runLive)
	for range runAllocs {
		size := int(rng.NormFloat64()*runStddev + runMean)
		if size < 1 {
			size = 1
		}
		b := alloc.Allocate(size)
		totalBytes.Add(uint64(size))
		live = append(live, b)
		if len(live) > runLive {
			alloc.Free(live[0])
			live = live[1:]
		}
	}
	for _, b := range live {
		alloc.Free(b)
	}
}

func writeProfileFile(eng *memstats.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	if err := eng.WriteProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return f.Close()
}
