package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"nu20-tools/internal/batch"
	"nu20-tools/internal/config"
	"nu20-tools/internal/raster"
	"nu20-tools/internal/source"
	"nu20-tools/internal/texture"
)

func main() {
	flags := config.Bind(flag.CommandLine)
	match := flag.String("match", "*.{nup,hgp}", "Expand .pak arguments to members matching this glob")
	frame := flag.Int("frame", 0, "Animated texture frame to show")
	testN := flag.Int("test", 0, "Render only the first N models")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: render [flags] file.nup|file.hgp|file.pak[::member] ...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger()

	inputs, err := source.Expand(flag.Args(), *match)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *testN > 0 && *testN < len(inputs) {
		inputs = inputs[:*testN]
	}
	if len(inputs) == 0 {
		fmt.Println("No models to render.")
		return
	}

	opts := raster.DefaultOptions()
	opts.Size, opts.Supersample, opts.Frame = cfg.RenderSize, cfg.Supersample, *frame
	// zero keeps the default view
	if cfg.Yaw != 0 {
		opts.Yaw = cfg.Yaw
	}
	if cfg.Pitch != 0 {
		opts.Pitch = cfg.Pitch
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("NU20 preview renderer → WebP\n")
	fmt.Printf("Models: %d, Workers: %d, Size: %d (x%d)\n", len(inputs), cfg.Workers, opts.Size, opts.Supersample)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")
	start := time.Now()

	results := batch.Run(cfg.Workers, inputs, func(in string) ([]string, error) {
		m, err := source.Model(in)
		if err != nil {
			return nil, err
		}
		img, st, err := raster.Render(m, texture.NewCache(m.Shared().Textures), opts)
		if err != nil {
			return nil, err
		}
		out := filepath.Join(cfg.OutputDir, source.Stem(in)+texture.WebP.Ext())
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		if err := texture.Encode(f, img, texture.WebP); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		log.Debug("render: done", "input", in, "drawables", st.Drawables, "meshes", st.Meshes,
			"triangles", humanize.Comma(int64(st.Triangles)), "skipped", st.Skipped)
		return []string{out}, nil
	})

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	failed := batch.Failed(results)
	fmt.Printf("Rendered: %d/%d\n", len(results)-len(failed), len(results))
	if len(failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failed))
		for _, r := range failed[:min(20, len(failed))] {
			fmt.Printf("  %s: %v\n", r.Input, r.Err)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}
