// Package source resolves tool inputs. An input is a file path or a member
// of a PAK archive written as "archive.pak::member".
package source

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"nu20-tools/internal/buffer"
	"nu20-tools/internal/format"
	"nu20-tools/internal/job"
	"nu20-tools/internal/model"
	"nu20-tools/internal/pak"
)

// Sep joins an archive path and a member name.
const Sep = "::"

// Kind is a decodable file type, chosen by extension.
type Kind int

const (
	Unknown Kind = iota
	NUP
	HGP
	GHG
	JOB
	PAK
)

func (k Kind) String() string {
	switch k {
	case NUP:
		return "nup"
	case HGP:
		return "hgp"
	case GHG:
		return "ghg"
	case JOB:
		return "job"
	case PAK:
		return "pak"
	}
	return "unknown"
}

// KindOf classifies name by its extension. Backslash separators are allowed.
func KindOf(name string) Kind {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/"))) {
	case ".nup":
		return NUP
	case ".hgp":
		return HGP
	case ".ghg":
		return GHG
	case ".job":
		return JOB
	case ".pak":
		return PAK
	}
	return Unknown
}

// Split separates an input into archive and member. Member is empty for
// plain files.
func Split(input string) (archive, member string) {
	if a, m, ok := strings.Cut(input, Sep); ok {
		return a, m
	}
	return input, ""
}

// Stem is a file-system friendly base name for outputs derived from input.
func Stem(input string) string {
	archive, member := Split(input)
	name := archive
	if member != "" {
		name = strings.ReplaceAll(member, `\`, "/")
	}
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Expand lists the inputs named by args. Archives are expanded to their
// members whose names match pattern; other paths are kept as given.
func Expand(args []string, pattern string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if KindOf(arg) != PAK || pattern == "" {
			out = append(out, arg)
			continue
		}
		a, err := pak.Open(arg)
		if err != nil {
			return nil, err
		}
		seq, err := a.Glob(pattern)
		if err != nil {
			a.Close()
			return nil, err
		}
		for name := range seq {
			out = append(out, arg+Sep+name)
		}
		a.Close()
	}
	return out, nil
}

// Read returns the bytes of input as an owned in-memory cursor. Each call
// opens its own file handle.
func Read(input string) (*buffer.Cursor, error) {
	archive, member := Split(input)
	if member == "" {
		data, err := os.ReadFile(archive)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		return buffer.New(data), nil
	}
	a, err := pak.Open(archive)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	e, ok := a.Lookup(member)
	if !ok {
		return nil, fmt.Errorf("source: %s: member %q: %w", archive, member, format.ErrNotFound)
	}
	return a.Read(e)
}

// Model decodes a NUP or HGP input.
func Model(input string) (model.Model, error) {
	c, err := Read(input)
	if err != nil {
		return nil, err
	}
	switch k := KindOf(nameOf(input)); k {
	case NUP:
		return asModel(model.DecodeNUP(c))
	case HGP:
		return asModel(model.DecodeHGP(c))
	default:
		return nil, fmt.Errorf("source: %s: %w", input, format.Unsupported("model kind", 0, k.String()))
	}
}

// Decode decodes any supported input into its top-level value: *model.NUP,
// *model.HGP, *model.GHG, *job.Job or *pak.Archive.
func Decode(input string, log *slog.Logger) (any, error) {
	if KindOf(nameOf(input)) == PAK {
		if _, member := Split(input); member == "" {
			return wrap(pak.Open(input))
		}
	}
	c, err := Read(input)
	if err != nil {
		return nil, err
	}
	switch k := KindOf(nameOf(input)); k {
	case NUP:
		return wrap(model.DecodeNUP(c))
	case HGP:
		return wrap(model.DecodeHGP(c))
	case GHG:
		return wrap(model.DecodeGHG(c))
	case JOB:
		return wrap(job.Decode(c, job.WithLogger(log)))
	case PAK:
		return wrap(pak.New(c))
	default:
		return nil, fmt.Errorf("source: %s: %w", input, format.Unsupported("file kind", 0, k.String()))
	}
}

func nameOf(input string) string {
	archive, member := Split(input)
	if member != "" {
		return member
	}
	return archive
}

// wrap keeps a failed decode from leaking a typed nil into an interface.
func wrap[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func asModel[T model.Model](m T, err error) (model.Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
