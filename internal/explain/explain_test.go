package explain

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countClassifier vectorizes by raw term counts over a fixed vocabulary
type countClassifier struct {
	vocab   map[string]int
	weights []float64
	extra   []Feature
}

func (c *countClassifier) Transform(text string) []Feature {
	counts := make(map[int]float64)
	order := make([]int, 0)
	for _, tok := range strings.Fields(text) {
		idx, ok := c.vocab[Canonical(tok)]
		if !ok {
			continue
		}
		if _, seen := counts[idx]; !seen {
			order = append(order, idx)
		}
		counts[idx]++
	}
	features := make([]Feature, 0, len(order)+len(c.extra))
	for _, idx := range order {
		features = append(features, Feature{Index: idx, Value: counts[idx]})
	}
	return append(features, c.extra...)
}

func (c *countClassifier) Coefficients() []float64 { return c.weights }

func (c *countClassifier) Vocabulary() map[string]int { return c.vocab }

func newTestClassifier() *countClassifier {
	return &countClassifier{
		vocab: map[string]int{
			"win":   0,
			"free":  1,
			"prize": 2,
			"now":   3,
			"offer": 4,
			"lunch": 5,
		},
		weights: []float64{0.5, 2.0, 1.5, 0.2, 1.0, -1.2},
	}
}

func TestNewAdapter_Integration(t *testing.T) {
	tests := []struct {
		name string
		clf  Classifier
	}{
		{"nil classifier", nil},
		{"no coefficients", &countClassifier{vocab: map[string]int{"a": 0}}},
		{"no vocabulary", &countClassifier{weights: []float64{1}}},
		{"index out of range", &countClassifier{vocab: map[string]int{"a": 3}, weights: []float64{1}}},
		{"negative index", &countClassifier{vocab: map[string]int{"a": -1}, weights: []float64{1}}},
		{"shared index", &countClassifier{vocab: map[string]int{"a": 0, "b": 0}, weights: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.clf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIntegration))
		})
	}
}

func TestAdapter_Inspect(t *testing.T) {
	adapter, err := NewAdapter(newTestClassifier())
	require.NoError(t, err)
	assert.Equal(t, 6, adapter.Size())

	vec, err := adapter.Inspect("free FREE lunch")
	require.NoError(t, err)
	assert.Equal(t, []Feature{{Index: 1, Value: 2}, {Index: 5, Value: 1}}, vec.Features)
	assert.Len(t, vec.Weights, 6)
	assert.Equal(t, "lunch", vec.Words[5])

	word, ok := adapter.Word(2)
	assert.True(t, ok)
	assert.Equal(t, "prize", word)

	_, ok = adapter.Word(42)
	assert.False(t, ok)
}

func TestAdapter_InspectRejectsForeignIndex(t *testing.T) {
	clf := newTestClassifier()
	clf.extra = []Feature{{Index: 99, Value: 1}}
	adapter, err := NewAdapter(clf)
	require.NoError(t, err)

	_, err = adapter.Inspect("free")
	assert.True(t, errors.Is(err, ErrIntegration))
}

func TestEngine_Attribute(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	got, err := engine.Attribute("WIN a FREE prize now", 10)
	require.NoError(t, err)
	assert.Equal(t, []Contribution{
		{Word: "free", Score: 2.0},
		{Word: "prize", Score: 1.5},
		{Word: "win", Score: 0.5},
		{Word: "now", Score: 0.2},
	}, got)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestEngine_ConcurrentCallers(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	want, err := engine.Attribute("WIN a FREE prize now", 3)
	require.NoError(t, err)
	wantHighlight := Highlight("WIN a FREE prize now", want)

	var wg sync.WaitGroup
	results := make([][]Contribution, 16)
	highlights := make([]string, len(results))
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Attribute("WIN a FREE prize now", 3)
			highlights[i] = Highlight("WIN a FREE prize now", results[i])
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
		assert.Equal(t, wantHighlight, highlights[i])
	}
}

func TestEngine_AttributeTopK(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	text := "win free prize now offer lunch"
	tests := []struct {
		name string
		topK int
		want int
	}{
		{"truncates", 2, 2},
		{"exact", 6, 6},
		{"larger than features", 50, 6},
		{"zero selects default", 0, 6},
		{"negative selects default", -3, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Attribute(text, tt.topK)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	top, err := engine.Attribute(text, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"free", "prize"}, Words(top))
}

func TestEngine_NoSignal(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	for _, text := range []string{"", "   \t\n ", "Hello, how are you?"} {
		got, err := engine.Attribute(text, 10)
		require.NoError(t, err)
		assert.Empty(t, got, "text %q", text)
	}
}

func TestEngine_RepeatedWordContributesOnce(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	got, err := engine.Attribute("free free offer", 10)
	require.NoError(t, err)
	assert.Equal(t, []Contribution{
		{Word: "free", Score: 4.0},
		{Word: "offer", Score: 1.0},
	}, got)

	assert.Equal(t, "<mark>free</mark> <mark>free</mark> <mark>offer</mark>", Highlight("free free offer", got))
}

func TestEngine_TiesKeepEncounterOrder(t *testing.T) {
	clf := &countClassifier{
		vocab:   map[string]int{"alpha": 0, "beta": 1, "gamma": 2},
		weights: []float64{1, 1, 1},
	}
	engine, err := NewEngine(clf)
	require.NoError(t, err)

	got, err := engine.Attribute("gamma alpha beta", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, Words(got))
}

func TestEngine_SkipsUnmappedIndex(t *testing.T) {
	clf := &countClassifier{
		vocab:   map[string]int{"free": 0},
		weights: []float64{1, 3},
		extra:   []Feature{{Index: 1, Value: 1}},
	}
	engine, err := NewEngine(clf)
	require.NoError(t, err)

	got, err := engine.Attribute("free", 10)
	require.NoError(t, err)
	assert.Equal(t, []Contribution{{Word: "free", Score: 1}}, got)
}

func TestTotal(t *testing.T) {
	engine, err := NewEngine(newTestClassifier())
	require.NoError(t, err)

	all, err := engine.Contributions("win free lunch")
	require.NoError(t, err)
	assert.True(t, math.Abs(Total(all)-(0.5+2.0-1.2)) < 1e-12)
	assert.Zero(t, Total(nil))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FREE", "free"},
		{"prize!", "prize"},
		{"(call)", "call"},
		{"\"Now?\"", "now"},
		{"[win];", "win"},
		{"don't", "don't"},
		{"...", ""},
		{"£100", "£100"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
			assert.Equal(t, Canonical(tt.in), Canonical(Canonical(tt.in)))
		})
	}
}

func TestHighlight(t *testing.T) {
	ranked := []Contribution{{Word: "free", Score: 2}, {Word: "prize", Score: 1.5}}

	tests := []struct {
		name   string
		text   string
		ranked []Contribution
		want   string
	}{
		{
			name:   "keeps original casing",
			text:   "WIN a FREE prize now",
			ranked: ranked,
			want:   "WIN a <mark>FREE</mark> <mark>prize</mark> now",
		},
		{
			name:   "keeps punctuation on marked token",
			text:   "Claim your prize! It's free.",
			ranked: ranked,
			want:   "Claim your <mark>prize!</mark> It's <mark>free.</mark>",
		},
		{
			name:   "empty text",
			text:   "",
			ranked: ranked,
			want:   "",
		},
		{
			name:   "no ranked words normalises whitespace only",
			text:   "  Hello,   how are\tyou?  ",
			ranked: nil,
			want:   "Hello, how are you?",
		},
		{
			name:   "ranked words matched case-insensitively",
			text:   "free PRIZE",
			ranked: []Contribution{{Word: "Prize", Score: 1}},
			want:   "free <mark>PRIZE</mark>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highlight(tt.text, tt.ranked))
		})
	}
}

func TestHighlightWith(t *testing.T) {
	got := HighlightWith("win a free prize", []Contribution{{Word: "free"}}, Marker{Open: "**", Close: "**"})
	assert.Equal(t, "win a **free** prize", got)
}
