package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nu20-tools/internal/batch"
	"nu20-tools/internal/config"
	"nu20-tools/internal/model"
	"nu20-tools/internal/source"
	"nu20-tools/internal/texture"
)

func main() {
	flags := config.Bind(flag.CommandLine)
	match := flag.String("match", "*.nup", "Expand .pak arguments to members matching this glob")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: texdump [flags] file.nup|file.hgp|file.pak[::member] ...")
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
	f, _ := texture.ParseFormat(cfg.TextureFormat)

	inputs, err := source.Expand(flag.Args(), *match)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Println("No models to dump.")
		return
	}

	fmt.Printf("Models: %d, Workers: %d, Format: %s\n", len(inputs), cfg.Workers, f)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")
	start := time.Now()

	results := batch.Run(cfg.Workers, inputs, func(in string) ([]string, error) {
		return dump(in, &cfg, f, log)
	})

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	written := 0
	for _, r := range results {
		written += len(r.Value)
	}
	failed := batch.Failed(results)
	fmt.Printf("Models: %d/%d, files written: %d\n", len(results)-len(failed), len(results), written)
	for _, r := range failed {
		fmt.Printf("  %s: %v\n", r.Input, r.Err)
	}

	manifestPath := filepath.Join(cfg.OutputDir, "textures.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}

// dump writes every texture of one model, then its animated textures.
// Textures that fail to export are reported but do not stop the rest.
func dump(in string, cfg *config.Config, f texture.Format, log *slog.Logger) ([]string, error) {
	m, err := source.Model(in)
	if err != nil {
		return nil, err
	}
	a := m.Shared()
	dir := filepath.Join(cfg.OutputDir, source.Stem(in))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var out []string
	var errs []error
	for i, t := range a.Textures {
		path := filepath.Join(dir, fmt.Sprintf("tex_%03d%s", i, f.Ext()))
		err := writeFile(path, func(w io.Writer) error { return texture.Export(w, t, f, cfg.MaxTextureSize) })
		if err != nil {
			log.Warn("texdump: texture failed", "input", in, "index", i, "size", fmt.Sprintf("%dx%d", t.Width, t.Height), "err", err)
			errs = append(errs, fmt.Errorf("texture %d: %w", i, err))
			continue
		}
		out = append(out, path)
	}

	if n, ok := m.(*model.NUP); ok && len(n.Animated) > 0 {
		cache := texture.NewCache(a.Textures)
		for i, anim := range n.Animated {
			if len(anim.Frames) == 0 {
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("anim_%03d.webp", i))
			err := writeFile(path, func(w io.Writer) error {
				return cache.Animate(w, anim, cfg.FrameDurationMS, cfg.MaxTextureSize)
			})
			if err != nil {
				log.Warn("texdump: animation failed", "input", in, "index", i, "err", err)
				errs = append(errs, fmt.Errorf("animation %d: %w", i, err))
				continue
			}
			out = append(out, path)
		}
	}
	log.Debug("texdump: model done", "input", in, "files", len(out))
	return out, errors.Join(errs...)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
