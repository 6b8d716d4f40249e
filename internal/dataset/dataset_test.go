package dataset

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collection = "v1,v2,,,\n" +
	"ham,\"Go until jurong point, crazy..\",,,\n" +
	"spam,Free entry in 2 a wkly comp to win FA Cup final tkts,,,\n" +
	"ham,Ok lar... Joking wif u oni...,,,\n" +
	"unknown,should be skipped,,,\n" +
	"spam,WINNER!! You have been selected to receive a prize,,,\n"

func TestLoad(t *testing.T) {
	ds, err := Load(strings.NewReader(collection))
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 2, ds.Count(LabelHam))
	assert.Equal(t, 2, ds.Count(LabelSpam))
}

func TestLoad_Latin1(t *testing.T) {
	// 0xA3 is the pound sign in ISO-8859-1
	raw := []byte("v1,v2\nspam,Win \xa3100 now\n")
	ds, err := Load(bytes.NewReader(raw))
	require.NoError(t, err)

	s, err := ds.Random(rand.New(rand.NewSource(1)), LabelSpam)
	require.NoError(t, err)
	assert.Equal(t, "Win £100 now", s.Text)
}

func TestLoad_MissingColumns(t *testing.T) {
	_, err := Load(strings.NewReader("label,text\nham,hi\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(""))
	assert.Error(t, err)
}

func TestRandom(t *testing.T) {
	ds, err := Load(strings.NewReader(collection))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		s, err := ds.Random(rng, "SPAM")
		require.NoError(t, err)
		assert.Equal(t, LabelSpam, s.Label)

		s, err = ds.Random(rng, "")
		require.NoError(t, err)
		assert.Contains(t, []string{LabelHam, LabelSpam}, s.Label)
	}
}

func TestRandom_NoSamples(t *testing.T) {
	ds, err := Load(strings.NewReader("v1,v2\nham,hello\n"))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))

	_, err = ds.Random(rng, LabelSpam)
	assert.True(t, errors.Is(err, ErrNoSamples))

	empty, err := Load(strings.NewReader("v1,v2\n"))
	require.NoError(t, err)
	_, err = empty.Random(rng, "")
	assert.True(t, errors.Is(err, ErrNoSamples))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spam.csv")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0o600))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
