package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"nu20-tools/internal/config"
	"nu20-tools/internal/pak"
)

func main() {
	flags := config.Bind(flag.CommandLine)
	match := flag.String("match", "*", "Only members matching this glob")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pak [flags] list|extract archive.pak")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, path := flag.Arg(0), flag.Arg(1)

	cfg, err := config.FromFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger()

	a, err := pak.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	seq, err := a.Glob(*match)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "list":
		n := 0
		for name := range seq {
			e, _ := a.Lookup(name)
			fmt.Printf("%10s  %s\n", humanize.Bytes(uint64(e.Size)), name)
			n++
		}
		fmt.Printf("%d of %d members\n", n, a.Len())
	case "extract":
		dir := filepath.Join(cfg.OutputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		written, failed := 0, 0
		for name, c := range seq {
			rel := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
			if !filepath.IsLocal(rel) {
				log.Warn("pak: skipping member outside the output directory", "name", name)
				failed++
				continue
			}
			if c == nil {
				log.Error("pak: unreadable member", "name", name)
				failed++
				continue
			}
			data, err := c.Bytes()
			if err == nil {
				out := filepath.Join(dir, rel)
				if err = os.MkdirAll(filepath.Dir(out), 0o755); err == nil {
					err = os.WriteFile(out, data, 0o644)
				}
			}
			if err != nil {
				log.Error("pak: extract failed", "name", name, "err", err)
				failed++
				continue
			}
			written++
		}
		fmt.Printf("Extracted %d members to %s\n", written, dir)
		if failed > 0 {
			fmt.Printf("Failed: %d\n", failed)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}
