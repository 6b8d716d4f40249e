// Package dataset loads the labelled SMS collection used for sampling
// example messages.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const (
	// LabelHam marks a legitimate message
	LabelHam = "ham"
	// LabelSpam marks a spam message
	LabelSpam = "spam"

	labelColumn = "v1"
	textColumn  = "v2"
)

// ErrNoSamples is returned when no message matches a sampling request
var ErrNoSamples = errors.New("no samples available")

// Sample is one labelled message
type Sample struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Dataset is an in-memory, read-only message collection
type Dataset struct {
	samples []Sample
	byLabel map[string][]int
}

// LoadFile reads a latin-1 encoded CSV collection from path
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return ds, nil
}

// Load reads a latin-1 encoded CSV with a header naming the label column v1
// and the text column v2. Rows with other labels are skipped.
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	labelIdx, textIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case labelColumn:
			labelIdx = i
		case textColumn:
			textIdx = i
		}
	}
	if labelIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("header must contain %q and %q columns", labelColumn, textColumn)
	}

	ds := &Dataset{byLabel: make(map[string][]int)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if labelIdx >= len(record) || textIdx >= len(record) {
			continue
		}

		label := strings.ToLower(strings.TrimSpace(record[labelIdx]))
		if label != LabelHam && label != LabelSpam {
			continue
		}

		ds.byLabel[label] = append(ds.byLabel[label], len(ds.samples))
		ds.samples = append(ds.samples, Sample{Label: label, Text: record[textIdx]})
	}

	return ds, nil
}

// Len returns the number of messages
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Count returns the number of messages carrying label
func (d *Dataset) Count(label string) int {
	return len(d.byLabel[label])
}

// Random picks a message uniformly at random. An empty label samples the
// whole collection.
func (d *Dataset) Random(rng *rand.Rand, label string) (Sample, error) {
	if label == "" {
		if len(d.samples) == 0 {
			return Sample{}, ErrNoSamples
		}
		return d.samples[rng.Intn(len(d.samples))], nil
	}

	idx := d.byLabel[strings.ToLower(label)]
	if len(idx) == 0 {
		return Sample{}, fmt.Errorf("label %q: %w", label, ErrNoSamples)
	}
	return d.samples[idx[rng.Intn(len(idx))]], nil
}
