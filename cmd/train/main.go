// Command train fits the image autoencoder to a single image and saves the
// learned parameters.
//
// Usage:
//
//	train <input_image> <output_model> [-epochs N] [-lr F] [-log-every N]
//	      [-csv path] [-checkpoint path] [-patience N] [-lr-step N]
//	      [-lr-gamma F] [-lr-decay F] [-gguf path] [-f16] [-seed N]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/FlavioCFOliveira/imgae/internal/cli"
	"github.com/FlavioCFOliveira/imgae/internal/imageio"
	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/loss"
	"github.com/FlavioCFOliveira/imgae/internal/model"
	"github.com/FlavioCFOliveira/imgae/internal/net"
	"github.com/FlavioCFOliveira/imgae/internal/opt"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

type config struct {
	input      string
	output     string
	epochs     int
	lr         float64
	logEvery   int
	csvPath    string
	checkpoint string
	patience   int
	lrStep     int
	lrGamma    float64
	lrDecay    float64
	ggufPath   string
	f16        bool
	seed       uint64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return cli.ExitUsage
	}

	logger := log.New(stdout, "", 0)
	if err := train(cfg, logger); err != nil {
		fmt.Fprintf(stderr, "train: %v\n", err)
		return cli.ExitFailure
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (config, error) {
	cfg := config{}
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: train <input_image> <output_model> [flags]")
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.epochs, "epochs", 500, "number of training epochs")
	fs.Float64Var(&cfg.lr, "lr", 0.001, "Adam learning rate")
	fs.IntVar(&cfg.logEvery, "log-every", 1, "log the loss every N epochs (0 disables)")
	fs.StringVar(&cfg.csvPath, "csv", "", "write per-epoch metrics to this CSV file")
	fs.StringVar(&cfg.checkpoint, "checkpoint", "", "save the best parameters seen so far to this file")
	fs.IntVar(&cfg.patience, "patience", 0, "stop after N epochs without improvement (0 disables)")
	fs.IntVar(&cfg.lrStep, "lr-step", 0, "multiply the learning rate by -lr-gamma every N epochs (0 disables)")
	fs.Float64Var(&cfg.lrGamma, "lr-gamma", 0.5, "learning rate decay factor for -lr-step")
	fs.Float64Var(&cfg.lrDecay, "lr-decay", 0, "multiply the learning rate by F after every epoch (0 disables)")
	fs.StringVar(&cfg.ggufPath, "gguf", "", "also export the parameters as GGUF to this file")
	fs.BoolVar(&cfg.f16, "f16", false, "store GGUF tensors as float16")
	fs.Uint64Var(&cfg.seed, "seed", tensor.DefaultSeed, "weight initialization seed")

	positional, err := cli.Parse(fs, args)
	if err != nil {
		return cfg, err
	}
	if len(positional) != 2 {
		fs.Usage()
		return cfg, errors.Errorf("expected 2 arguments, got %d", len(positional))
	}
	if cfg.epochs <= 0 {
		fs.Usage()
		return cfg, errors.Errorf("-epochs must be positive, got %d", cfg.epochs)
	}
	if cfg.lr <= 0 {
		fs.Usage()
		return cfg, errors.Errorf("-lr must be positive, got %g", cfg.lr)
	}
	if cfg.lrDecay < 0 || cfg.lrDecay > 1 {
		fs.Usage()
		return cfg, errors.Errorf("-lr-decay must be in [0, 1], got %g", cfg.lrDecay)
	}
	cfg.input, cfg.output = positional[0], positional[1]
	return cfg, nil
}

func train(cfg config, logger *log.Logger) error {
	logger.Printf("Loading image: %s", cfg.input)
	input, err := imageio.Load(cfg.input)
	if err != nil {
		return err
	}

	logger.Printf("Training for %d epochs with lr=%g", cfg.epochs, cfg.lr)
	ae, err := model.New(input.Size(), tensor.NewRNG(cfg.seed))
	if err != nil {
		return err
	}
	params := ae.Parameters()
	logger.Printf("Model parameters: %d tensors", len(params))
	logger.Printf("Total trainable values: %d", layer.CountParameters(params))

	adamCfg := opt.DefaultAdamConfig()
	adamCfg.LR = float32(cfg.lr)
	adam := opt.NewAdam(params, adamCfg)

	callbacks := []net.Callback{net.Logger{Interval: cfg.logEvery, Log: logger}}
	callbacks = append(callbacks, schedulers(cfg, adam)...)
	if cfg.csvPath != "" {
		callbacks = append(callbacks, net.NewCSVLogger(cfg.csvPath, false))
	}
	if cfg.checkpoint != "" {
		ckpt := net.NewModelCheckpoint(cfg.checkpoint)
		ckpt.Log = logger
		callbacks = append(callbacks, ckpt)
	}
	if cfg.patience > 0 {
		es := net.NewEarlyStopping(cfg.patience, 0)
		es.Log = logger
		callbacks = append(callbacks, es)
	}

	trainer := net.NewTrainer(ae, loss.NewMSE(), adam, callbacks...)
	start := time.Now()
	history, err := trainer.Fit(input, input, cfg.epochs)
	if err != nil {
		return err
	}
	logger.Printf("Training complete in %s (%d epochs, final loss %.6f)",
		time.Since(start).Round(time.Millisecond), len(history), history[len(history)-1])

	if err := net.SaveFile(cfg.output, ae.Parameters()); err != nil {
		return err
	}
	logger.Printf("Model saved to %s", cfg.output)

	if cfg.ggufPath != "" {
		ggmlType := net.GGMLTypeF32
		if cfg.f16 {
			ggmlType = net.GGMLTypeF16
		}
		if err := net.SaveGGUF(cfg.ggufPath, "imgae", ae.Parameters(), ggmlType); err != nil {
			return err
		}
		logger.Printf("GGUF export saved to %s", cfg.ggufPath)
	}
	return nil
}

// schedulers returns the learning rate schedules enabled by the flags. The
// step schedule runs before the per-epoch decay.
func schedulers(cfg config, o opt.Optimizer) []net.Callback {
	var out []net.Callback
	if cfg.lrStep > 0 {
		out = append(out, net.NewSchedulerCallback(opt.NewStepLR(o, cfg.lrStep, float32(cfg.lrGamma))))
	}
	if cfg.lrDecay > 0 {
		out = append(out, net.NewSchedulerCallback(opt.NewExponentialLR(o, float32(cfg.lrDecay))))
	}
	return out
}
