// Command evacsim runs a single evacuation simulation and prints its result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/simulator"
)

type options struct {
	mapPath         string
	pedestrianPath  string
	scenarioSeed    uint64
	simulationSeed  uint64
	wallCoefficient float64
	dynamicDecay    float64
	maxIterations   int
	output          string
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.mapPath, "map", "", "Path of the map text file.")
	fs.StringVar(&o.pedestrianPath, "pedestrians", "", "Path of the pedestrian descriptors JSON file.")
	fs.Uint64Var(&o.scenarioSeed, "scenario-seed", 0, "Seed of the pedestrian placement.")
	fs.Uint64Var(&o.simulationSeed, "simulation-seed", 0, "Seed of tie breaking and conflict resolution.")
	fs.Float64Var(&o.wallCoefficient, "wall-coefficient", crowd.DefaultWallCoefficient, "Exponent factor of the wall repulsion term.")
	fs.Float64Var(&o.dynamicDecay, "dynamic-decay", crowd.DefaultDynamicDecay, "Fraction of the dynamic field lost every tick.")
	fs.IntVar(&o.maxIterations, "max-iterations", crowd.DefaultMaxIterations, "Maximum number of ticks.")
	fs.StringVar(&o.output, "output", "", "Write the JSON result to this file instead of stdout.")
}

func (o *options) validate() error {
	var errs []error
	if o.mapPath == "" {
		errs = append(errs, errors.New("--map is required"))
	}
	if o.pedestrianPath == "" {
		errs = append(errs, errors.New("--pedestrians is required"))
	}
	if o.maxIterations <= 0 {
		errs = append(errs, fmt.Errorf("--max-iterations must be positive, got %d", o.maxIterations))
	}
	return errors.Join(errs...)
}

func main() {
	opts := &options{}
	fs := pflag.CommandLine
	fs.SetNormalizeFunc(cliflag.WordSepNormalizeFunc)
	opts.addFlags(fs)
	logs.AddFlags(fs)
	pflag.Parse()

	logs.InitLogs()
	defer logs.FlushLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = klog.NewContext(ctx, klog.Background())

	if err := run(ctx, opts, os.Stdout); err != nil {
		klog.ErrorS(err, "Simulation failed")
		logs.FlushLogs()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, stdout io.Writer) error {
	logger := klog.FromContext(ctx)
	if err := opts.validate(); err != nil {
		return err
	}

	text, err := os.ReadFile(opts.mapPath)
	if err != nil {
		return err
	}
	m, err := grid.Load(string(text))
	if err != nil {
		return fmt.Errorf("%s: %w", opts.mapPath, err)
	}
	pedestrians, err := crowd.LoadDescriptors(opts.pedestrianPath)
	if err != nil {
		return err
	}

	sim := simulator.New(crowd.Config{
		WallCoefficient: opts.wallCoefficient,
		DynamicDecay:    opts.dynamicDecay,
		MaxIterations:   opts.maxIterations,
	}, logger)
	res, err := sim.Simulate(ctx, simulator.Scenario{
		Map:         m,
		Pedestrians: pedestrians,
		Seeds:       simulator.Seeds{Scenario: opts.scenarioSeed, Simulation: opts.simulationSeed},
	})
	if err != nil {
		return err
	}

	logger.Info("Simulation finished",
		"pedestrians", humanize.Comma(int64(len(pedestrians))),
		"iterations", humanize.Comma(int64(res.Iterations)),
		"distance", humanize.FormatFloat("#,###.##", res.Distance),
		"remaining", res.Remaining)

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
