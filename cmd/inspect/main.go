package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"nu20-tools/internal/config"
	"nu20-tools/internal/job"
	"nu20-tools/internal/model"
	"nu20-tools/internal/nu20"
	"nu20-tools/internal/pak"
	"nu20-tools/internal/source"
)

func main() {
	flags := config.Bind(flag.CommandLine)
	match := flag.String("match", "", "Expand .pak arguments to members matching this glob")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: inspect [flags] file.nup|file.hgp|file.ghg|file.job|file.pak[::member] ...")
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

	failed := 0
	for _, in := range inputs {
		fmt.Printf("== %s\n", in)
		v, err := source.Decode(in, log)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			failed++
			continue
		}
		switch v := v.(type) {
		case *model.NUP:
			printNUP(v)
		case *model.HGP:
			printHGP(v)
		case *model.GHG:
			fmt.Printf("  NUP offset: 0x%X, count: %d\n", v.NUPOffset, v.Count)
			printChunks(v.Container)
			if v.Names != nil {
				fmt.Printf("  Names: %d\n", v.Names.Len())
			}
		case *job.Job:
			printJob(v)
		case *pak.Archive:
			printPAK(v)
			v.Close()
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func printChunks(ct *nu20.Container) {
	if ct == nil {
		return
	}
	fmt.Printf("  Chunks: %d\n", len(ct.Chunks))
	for _, ch := range ct.Chunks {
		fmt.Printf("    %s  %s\n", ch.Tag, humanize.Bytes(uint64(ch.Size)))
	}
}

func printAssets(a *model.Assets) {
	var texBytes uint64
	for _, t := range a.Textures {
		texBytes += uint64(len(t.Data))
	}
	fmt.Printf("  Textures: %d (%s)\n", len(a.Textures), humanize.Bytes(texBytes))
	fmt.Printf("  Materials: %d\n", len(a.Materials))
	if a.Buffers != nil {
		fmt.Printf("  Vertex buffers: %d, index buffers: %d\n", len(a.Buffers.Vertices), len(a.Buffers.Indices))
	}
}

func printDrawables(m model.Model) {
	meshes, hidden := 0, 0
	ds := m.Drawables()
	for _, d := range ds {
		if d.Hidden {
			hidden++
		}
		if d.Container != nil {
			meshes += len(d.Container.Meshes)
		}
	}
	fmt.Printf("  Drawables: %d (%d hidden), meshes: %d\n", len(ds), hidden, meshes)
}

func printNUP(n *model.NUP) {
	printChunks(n.Container)
	printAssets(&n.Assets)
	fmt.Printf("  Objects: %d, instances: %d, specs: %d\n", len(n.Objects), len(n.Instances), len(n.Specs))
	fmt.Printf("  Animated textures: %d, bounds: %d, splines: %d\n", len(n.Animated), len(n.Bounds), len(n.Splines))
	printDrawables(n)
}

func printHGP(h *model.HGP) {
	fmt.Printf("  Version: %d, size: %s\n", h.Header.Version, humanize.Bytes(uint64(h.FileSize)))
	printAssets(&h.Assets)
	fmt.Printf("  Bones: %d, attachments: %d, layers: %d\n", len(h.Bones), len(h.Attachments), len(h.Layers))
	for _, b := range h.Bones {
		fmt.Printf("    bone %-24s parent %d\n", b.Name, b.Parent)
	}
	printDrawables(h)
}

func printJob(j *job.Job) {
	fmt.Printf("  Records: %d\n", j.RecordCount)
	if j.FileInfo != nil {
		fmt.Printf("  FileInfo: %d\n", j.FileInfo.Unk)
	}
	if j.Settings != nil {
		fmt.Printf("  Settings: %g, %d\n", j.Settings.Unk0, j.Settings.Unk1)
	}
	for name, ed := range j.Editors.All() {
		switch ed := ed.(type) {
		case *job.ClassEditor:
			fmt.Printf("  %s: %d types, %d classes\n", name, len(ed.Types), len(ed.Classes))
			for _, cl := range ed.Classes {
				fmt.Printf("    class %s (%d members)\n", cl.Name, len(cl.Members))
			}
			for _, ol := range ed.ObjectLists {
				fmt.Printf("    %s: %d objects\n", ol.Name, len(ol.Objects))
			}
		case *job.SplineEditor:
			fmt.Printf("  %s: %d splines, %d points\n", name, len(ed.Splines.Splines), len(ed.Splines.Points))
			for _, s := range ed.Splines.Splines {
				fmt.Printf("    %-24s %3d points, %d segments, flags %s\n", s.Name, len(s.Points), len(s.Segments()), s.Flags)
			}
		}
	}
	if j.Editors != nil {
		for _, name := range j.Editors.Skipped {
			fmt.Printf("  Skipped editor: %s\n", name)
		}
	}
	for _, name := range j.Skipped {
		fmt.Printf("  Skipped record: %s\n", name)
	}
}

func printPAK(a *pak.Archive) {
	var total uint64
	for e := range a.Entries() {
		fmt.Printf("  %-48s %10s  @0x%X\n", e.Name, humanize.Bytes(uint64(e.Size)), e.Offset)
		total += uint64(e.Size)
	}
	fmt.Printf("  Members: %d, %s\n", a.Len(), humanize.Bytes(total))
}
