// Command doorplanner searches the door placements of a building that trade
// off the number of doors against evacuation cost.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/evacuation-planner/apis/config"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/util"
)

type options struct {
	configPath     string
	mapPath        string
	pedestrianPath string
	output         string
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path of the optimizer configuration (YAML or JSON).")
	fs.StringVar(&o.mapPath, "map", "", "Path of the base map text file. Its doors are the candidates.")
	fs.StringVar(&o.pedestrianPath, "pedestrians", "", "Path of the pedestrian descriptors JSON file.")
	fs.StringVar(&o.output, "output", "nsga_results.json", "Path of the Pareto front JSON file.")
}

func (o *options) validate() error {
	var errs []error
	for flag, v := range map[string]string{"config": o.configPath, "map": o.mapPath, "pedestrians": o.pedestrianPath, "output": o.output} {
		if v == "" {
			errs = append(errs, fmt.Errorf("--%s is required", flag))
		}
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

	if err := run(ctx, opts); err != nil {
		klog.ErrorS(err, "Optimization failed")
		logs.FlushLogs()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	logger := klog.FromContext(ctx)
	if err := opts.validate(); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(opts.mapPath)
	if err != nil {
		return err
	}
	base, err := grid.Load(string(text))
	if err != nil {
		return fmt.Errorf("%s: %w", opts.mapPath, err)
	}
	pedestrians, err := crowd.LoadDescriptors(opts.pedestrianPath)
	if err != nil {
		return err
	}

	planner, err := multiobjective.New(ctx, cfg, base, pedestrians)
	if err != nil {
		return err
	}

	logger.Info("Starting optimization",
		"planner", planner.Name(),
		"candidateDoors", len(planner.Candidates()),
		"pedestrians", len(pedestrians),
		"populationSize", cfg.NSGA.PopulationSize,
		"generations", cfg.NSGA.Generations,
		"scenarioSeeds", []uint64(cfg.Simulation.ScenarioSeeds),
		"threeObjectives", cfg.NSGA.UseThreeObjectives)

	start := time.Now()
	solutions, err := planner.Optimize(ctx)
	if err != nil {
		return err
	}
	if err := util.WriteJSON(opts.output, solutions); err != nil {
		return err
	}

	stats := planner.Stats()
	logger.Info("Optimization finished",
		"solutions", len(solutions),
		"configurations", humanize.Comma(int64(stats.Configurations)),
		"simulations", humanize.Comma(stats.Simulations),
		"elapsed", humanize.RelTime(start, time.Now(), "", ""),
		"output", opts.output)
	return nil
}
