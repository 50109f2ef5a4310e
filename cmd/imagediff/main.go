// Command imagediff renders the perceptual difference of two images.
//
//	imagediff [flags] background overlay
//
// Changed pixels are highlighted, unchanged ones show the overlay blended
// onto the background. The result is written as PNG or as zstd-compressed
// raw RGBA, and the pixel counts are printed to stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/imagediff"
	"github.com/gogpu/imagediff/imageio"
)

type config struct {
	output     string
	configPath string
	cpu        bool
	software   bool
	verbose    bool
	diff       imagediff.DiffOptions
	background string
	overlay    string
}

func main() {
	log.SetFlags(0)
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("imagediff: %v", err)
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("imagediff: %v", err)
	}
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("imagediff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: imagediff [flags] background overlay")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.output, "o", "diff.png", "output file (.png or "+imageio.RawExt+")")
	fs.StringVar(&cfg.configPath, "config", "", "TOML file with diff options; flags take precedence")
	fs.BoolVar(&cfg.cpu, "cpu", false, "do not use the GPU")
	fs.BoolVar(&cfg.software, "software", false, "highlight changes on the CPU when the GPU is unavailable")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")

	fs.Func("threshold", "perceptual threshold (default 0.2)", floatVar(&cfg.diff.Threshold))
	fs.Func("alpha", "overlay opacity (default 1)", floatVar(&cfg.diff.OverlayAlpha))
	fs.Func("addition", "addition colour as #rrggbb", colorVar(&cfg.diff.AdditionColor))
	fs.Func("deletion", "deletion colour as #rrggbb", colorVar(&cfg.diff.DeletionColor))
	fs.Func("diff", "single policy colour as #rrggbb", colorVar(&cfg.diff.DiffColor))
	fs.TextVar(&cfg.diff.Policy, "policy", imagediff.PolicyAuto, "auto, directional or single")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("want 2 images, got %d", fs.NArg())
	}
	cfg.background = fs.Arg(0)
	cfg.overlay = fs.Arg(1)

	if cfg.configPath != "" {
		var file imagediff.DiffOptions
		if _, err := toml.DecodeFile(cfg.configPath, &file); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		policy := cfg.diff.Policy
		cfg.diff = cfg.diff.Merge(file)
		// Merge reads PolicyAuto as unset; an explicit -policy auto still wins.
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "policy" {
				cfg.diff.Policy = policy
			}
		})
	}
	return cfg, nil
}

func floatVar(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

func colorVar(dst **imagediff.RGB) func(string) error {
	return func(s string) error {
		c, err := imagediff.ParseHex(s)
		if err != nil {
			return err
		}
		*dst = &c
		return nil
	}
}

func run(cfg *config, stdout io.Writer) error {
	if cfg.verbose {
		imagediff.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var bg, ov *imagediff.Pixmap
	var g errgroup.Group
	g.Go(func() (err error) {
		bg, err = imageio.Load(cfg.background)
		return err
	})
	g.Go(func() (err error) {
		ov, err = imageio.Load(cfg.overlay)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	var opts []imagediff.Option
	if cfg.cpu {
		opts = append(opts, imagediff.WithoutGPU())
	}
	if cfg.software {
		opts = append(opts, imagediff.WithSoftwareDiff())
	}
	c := imagediff.New(opts...)
	defer c.Dispose()

	out, err := c.Render(bg, ov, cfg.diff)
	if err != nil {
		return err
	}
	if err := imageio.Save(cfg.output, out); err != nil {
		return err
	}

	sum, err := c.Summarize(bg, ov, cfg.diff)
	if err != nil {
		return err
	}
	printSummary(stdout, cfg.output, c.Backend(), sum)
	return nil
}

func printSummary(w io.Writer, path string, b imagediff.Backend, s imagediff.Summary) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s: %dx%d, rendered on %s\n", path, s.Width, s.Height, b)
	p.Fprintf(w, "  unchanged %d\n", s.Unchanged)
	p.Fprintf(w, "  added     %d\n", s.Added)
	p.Fprintf(w, "  deleted   %d\n", s.Deleted)
	p.Fprintf(w, "  changed   %d (%.2f%%)\n", s.Different(), s.Ratio()*100)
}
