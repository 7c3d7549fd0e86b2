// Command reconstruct loads a trained autoencoder, passes an image through
// it and writes the reconstruction.
//
// Usage:
//
//	reconstruct <model> <input_image> <output_image>
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/FlavioCFOliveira/imgae/internal/cli"
	"github.com/FlavioCFOliveira/imgae/internal/imageio"
	"github.com/FlavioCFOliveira/imgae/internal/loss"
	"github.com/FlavioCFOliveira/imgae/internal/model"
	"github.com/FlavioCFOliveira/imgae/internal/net"
	"github.com/pkg/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reconstruct", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: reconstruct <model> <input_image> <output_image>")
	}
	positional, err := cli.Parse(fs, args)
	if err != nil {
		return cli.ExitUsage
	}
	if len(positional) != 3 {
		fs.Usage()
		return cli.ExitUsage
	}

	logger := log.New(stdout, "", 0)
	if err := reconstruct(positional[0], positional[1], positional[2], logger); err != nil {
		fmt.Fprintf(stderr, "reconstruct: %v\n", err)
		return cli.ExitFailure
	}
	return 0
}

func reconstruct(modelPath, inputPath, outputPath string, logger *log.Logger) error {
	ae, err := model.New(imageio.FlatSize, nil)
	if err != nil {
		return err
	}
	if err := net.LoadFile(modelPath, ae.Parameters()); err != nil {
		return err
	}
	logger.Printf("Loaded model from %s", modelPath)

	input, err := imageio.Load(inputPath)
	if err != nil {
		return err
	}
	logger.Printf("Loaded image: %s", inputPath)

	latent, err := ae.Encode(input)
	if err != nil {
		return err
	}
	stats, err := net.LatentStats(latent)
	if err != nil {
		return err
	}

	output, err := ae.Decode(latent)
	if err != nil {
		return err
	}
	mse, err := loss.NewMSE().Forward(output, input)
	if err != nil {
		return errors.Wrap(err, "reconstruction loss")
	}

	if err := imageio.Save(output, outputPath); err != nil {
		return err
	}

	logger.Printf("Reconstruction loss (MSE): %.6f", mse)
	logger.Printf("Latent vector (%d dims):", latent.Size())
	logger.Printf("  min:  %.6f", stats.Min)
	logger.Printf("  max:  %.6f", stats.Max)
	logger.Printf("  mean: %.6f", stats.Mean)
	logger.Printf("  std:  %.6f", stats.Std)
	logger.Printf("Saved reconstruction to %s", outputPath)
	return nil
}
