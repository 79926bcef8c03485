package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gosvca/adapters/excel"
	"gosvca/app"
	"gosvca/domain/recording"
	"gosvca/domain/svca"
	"gosvca/internal"
	"gosvca/internal/config"
	"gosvca/internal/testkit"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "demo":
		err = runDemo(os.Args[2:])
	case "sweep":
		err = runSweep(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: gosvca <command> [flags]

commands:
  analyze   run SVCA on an activity workbook (.xlsx: coordinate column + sample columns)
  demo      run SVCA on a synthetic recording with known shared structure
  sweep     run an SVCA grid over seeds and exclusion distances`)
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	in := fs.String("in", "", "input workbook path (.xlsx)")
	out := fs.String("out", "", "optional spectrum export path (.xlsx)")
	maxComponents := fs.Int("components", 0, "cap on retained components (0 = all)")
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	splitCfg := svca.DefaultSplitConfig()
	applyDefaults(&splitCfg, appCfg.Analysis)
	bindSplitFlags(fs, &splitCfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("analyze: -in is required")
	}

	name := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	rec, err := excel.NewActivityReader(*in).ReadRecording(name)
	if err != nil {
		return err
	}
	return analyzeAndPrint(rec, splitCfg, svca.Config{MaxComponents: *maxComponents}, *out)
}

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	units := fs.Int("units", 100, "number of units")
	samples := fs.Int("samples", 1000, "number of time samples")
	factors := fs.Int("factors", 3, "number of shared latent factors")
	amplitude := fs.Float64("amplitude", 5, "shared factor amplitude")
	noise := fs.Float64("noise", 1, "independent noise amplitude")
	out := fs.String("out", "", "optional spectrum export path (.xlsx)")
	maxComponents := fs.Int("components", 0, "cap on retained components (0 = all)")
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	splitCfg := svca.DefaultSplitConfig()
	applyDefaults(&splitCfg, appCfg.Analysis)
	bindSplitFlags(fs, &splitCfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
		Units:           *units,
		Samples:         *samples,
		SharedFactors:   *factors,
		FactorAmplitude: *amplitude,
		NoiseAmplitude:  *noise,
		CoordSpacing:    1,
		Seed:            splitCfg.Seed,
	}).Generate()
	return analyzeAndPrint(rec, splitCfg, svca.Config{MaxComponents: *maxComponents}, *out)
}

func runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	units := fs.Int("units", 100, "number of units")
	samples := fs.Int("samples", 1000, "number of time samples")
	seeds := fs.String("seeds", "1,2,3,4,5", "comma-separated seeds")
	distances := fs.String("distances", "0", "comma-separated exclusion distances")
	parallelism := fs.Int("parallelism", 4, "max concurrent cells")
	appCfg, err := config.Load()
	if err != nil {
		return err
	}
	splitCfg := svca.DefaultSplitConfig()
	applyDefaults(&splitCfg, appCfg.Analysis)
	bindSplitFlags(fs, &splitCfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	seedList, err := parseInt64List(*seeds)
	if err != nil {
		return fmt.Errorf("sweep: bad -seeds: %w", err)
	}
	distanceList, err := parseFloatList(*distances)
	if err != nil {
		return fmt.Errorf("sweep: bad -distances: %w", err)
	}

	logger := internal.NewDefaultLogger()
	rec := testkit.NewSyntheticGenerator(testkit.SyntheticConfig{
		Units:           *units,
		Samples:         *samples,
		SharedFactors:   3,
		FactorAmplitude: 5,
		NoiseAmplitude:  1,
		CoordSpacing:    1,
		Seed:            splitCfg.Seed,
	}).Generate()

	analysisService := app.NewAnalysisService(testkit.NewInMemoryRunRepository(), logger)
	sweepService := app.NewSweepService(analysisService, logger)
	cells, err := sweepService.RunSweep(context.Background(), app.SweepSpec{
		Base:               app.AnalysisRequest{Recording: rec, Split: splitCfg},
		Seeds:              seedList,
		ExclusionDistances: distanceList,
		Parallelism:        *parallelism,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-10s %-10s %-12s %-12s\n", "seed", "exclusion", "effdim", "shared", "exponent")
	for _, c := range cells {
		s := c.Outcome.Summary
		fmt.Printf("%-12d %-10.3f %-10d %-12.4f %-12.3f\n",
			c.Seed, c.ExclusionDistance, s.EffectiveDim, s.TotalShared, s.PowerLawExponent)
	}
	if best := app.BestCell(cells); best != nil {
		fmt.Printf("\nbest cell: seed=%d exclusion=%.3f (effective dim %d)\n",
			best.Seed, best.ExclusionDistance, best.Outcome.Summary.EffectiveDim)
	}
	return nil
}

func analyzeAndPrint(rec *recording.Recording, splitCfg svca.SplitConfig, svcaCfg svca.Config, out string) error {
	logger := internal.NewDefaultLogger()
	service := app.NewAnalysisService(nil, logger)
	outcome, err := service.Run(context.Background(), app.AnalysisRequest{
		Recording: rec,
		Split:     splitCfg,
		SVCA:      svcaCfg,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(outcome.Run, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	if out != "" {
		if err := excel.NewSpectrumWriter().Save(outcome.Run, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "spectrum exported to %s\n", out)
	}
	return nil
}

// bindSplitFlags registers the shared partition flags on a flag set
func bindSplitFlags(fs *flag.FlagSet, cfg *svca.SplitConfig) {
	fs.Float64Var(&cfg.ExclusionDistance, "exclusion", cfg.ExclusionDistance, "minimum distance between opposite groups")
	fs.IntVar(&cfg.UnitBins, "bins", cfg.UnitBins, "number of coordinate bins")
	fs.IntVar(&cfg.BlockWidth, "block", cfg.BlockWidth, "interleaved time block width in samples")
	fs.IntVar(&cfg.BoundaryMargin, "margin", cfg.BoundaryMargin, "samples discarded at each train/test boundary")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for shuffled assignment")
	fs.Float64Var(&cfg.TrainFraction, "train-fraction", 0.5, "train fraction for the contiguous strategy")
	fs.BoolVar(&cfg.Shuffle, "shuffle", false, "permute each unit's samples (null model)")
	fs.Func("assignment", "bin assignment policy: alternating, shuffled, contiguous", func(v string) error {
		cfg.Assignment = svca.GroupAssignment(v)
		return nil
	})
	fs.Func("time", "time split strategy: interleaved, contiguous", func(v string) error {
		cfg.TimeStrategy = svca.TimeStrategy(v)
		return nil
	})
}

// applyDefaults copies the environment defaults into a split config
func applyDefaults(cfg *svca.SplitConfig, defaults config.AnalysisConfig) {
	cfg.ExclusionDistance = defaults.ExclusionDistance
	cfg.UnitBins = defaults.UnitBins
	cfg.BlockWidth = defaults.BlockWidth
	cfg.BoundaryMargin = defaults.BoundaryMargin
	cfg.Seed = defaults.Seed
}

func parseInt64List(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
