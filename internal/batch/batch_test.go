package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunKeepsOrder(t *testing.T) {
	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("file%02d", i)
	}
	var active, peak atomic.Int32
	results := Run(4, inputs, func(in string) (int, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		if strings.HasSuffix(in, "7") {
			return 0, errors.New("boom")
		}
		return len(in), nil
	}, WithProgress(nil, 0))

	if len(results) != len(inputs) {
		t.Fatalf("%d results", len(results))
	}
	for i, r := range results {
		if r.Input != inputs[i] {
			t.Fatalf("Result %d is for %s", i, r.Input)
		}
	}
	if p := peak.Load(); p > 4 {
		t.Errorf("Peak concurrency %d exceeds 4 workers", p)
	}
	if failed := Failed(results); len(failed) != 5 || failed[0].Input != "file07" {
		t.Errorf("Failed = %v", failed)
	}
	if results[1].Value != 6 {
		t.Errorf("Value = %d", results[1].Value)
	}
}

func TestRunReportsProgress(t *testing.T) {
	var buf bytes.Buffer
	Run(1, []string{"a", "b"}, func(string) (struct{}, error) {
		time.Sleep(30 * time.Millisecond)
		return struct{}{}, nil
	}, WithProgress(&buf, 10*time.Millisecond))
	if !strings.Contains(buf.String(), "/2]") {
		t.Errorf("No progress line: %q", buf.String())
	}
}

func TestRunEmpty(t *testing.T) {
	if got := Run(8, nil, func(string) (int, error) { return 0, nil }, WithProgress(nil, 0)); len(got) != 0 {
		t.Errorf("Results = %v", got)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	results := []Result[[]string]{
		{Input: "hub.nup", Value: []string{filepath.Join(dir, "hub", "tex_000.webp")}},
		{Input: "bad.nup", Err: errors.New("nup: bad magic")},
	}
	if err := WriteManifest(path, results); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []ManifestEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Outputs[0] != "hub/tex_000.webp" || got[1].Error != "nup: bad magic" {
		t.Errorf("Manifest = %+v", got)
	}
}
