package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/citewell/citewell/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker_Validation(t *testing.T) {
	_, err := NewChunker(0, 0)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewChunker(10, 10)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewChunker(10, -1)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewChunker(10, 9)
	assert.NoError(t, err)
}

func TestSplit_OverlappingWindows(t *testing.T) {
	chunker, err := NewChunker(20, 5)
	require.NoError(t, err)

	text := strings.Repeat("abcde", 10) // 50 characters
	passages := chunker.Split(text)
	require.Len(t, passages, 3)

	assert.Equal(t, 0, passages[0].Offset)
	assert.Equal(t, 15, passages[1].Offset)
	assert.Equal(t, 30, passages[2].Offset)

	assert.Equal(t, text[0:20], passages[0].Text)
	assert.Equal(t, text[15:35], passages[1].Text)
	assert.Equal(t, text[30:50], passages[2].Text)

	for i, passage := range passages {
		assert.Equal(t, i, passage.Index)
	}
}

func TestSplit_TextShorterThanWindow(t *testing.T) {
	chunker, err := NewChunker(100, 10)
	require.NoError(t, err)

	passages := chunker.Split("short text")
	require.Len(t, passages, 1)
	assert.Equal(t, 0, passages[0].Offset)
	assert.Equal(t, "short text", passages[0].Text)
}

func TestSplit_ExactWindow(t *testing.T) {
	chunker, err := NewChunker(10, 2)
	require.NoError(t, err)

	passages := chunker.Split("0123456789")
	require.Len(t, passages, 1)
	assert.Equal(t, "0123456789", passages[0].Text)
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	chunker, err := NewChunker(20, 5)
	require.NoError(t, err)

	assert.Empty(t, chunker.Split(""))
	assert.Empty(t, chunker.Split("   \n\t  "))
}

func TestSplit_NeverSplitsMultibyteRunes(t *testing.T) {
	chunker, err := NewChunker(5, 0)
	require.NoError(t, err)

	// 2-byte runes; a naive byte window of 5 would cut the third one in half
	text := strings.Repeat("é", 30)
	passages := chunker.Split(text)
	require.NotEmpty(t, passages)

	next := 0
	for _, passage := range passages {
		assert.True(t, utf8.ValidString(passage.Text))
		assert.Equal(t, next, passage.Offset)
		next = passage.Offset + len(passage.Text)
	}
	assert.Equal(t, len(text), next)
}

func TestSplit_OverlapClampedToRuneStart(t *testing.T) {
	chunker, err := NewChunker(8, 3)
	require.NoError(t, err)

	passages := chunker.Split("naïve café crème brûlée")
	require.NotEmpty(t, passages)

	for _, passage := range passages {
		assert.True(t, utf8.ValidString(passage.Text), "passage %q", passage.Text)
		assert.True(t, utf8.RuneStart(passage.Text[0]))
	}
}

func TestSplit_WindowSmallerThanRune(t *testing.T) {
	chunker, err := NewChunker(1, 0)
	require.NoError(t, err)

	passages := chunker.Split("日本")
	require.Len(t, passages, 2)
	assert.Equal(t, "日", passages[0].Text)
	assert.Equal(t, "本", passages[1].Text)
	assert.Equal(t, 0, passages[0].Offset)
	assert.Equal(t, 3, passages[1].Offset)
}

func TestSplit_NoOverlap(t *testing.T) {
	chunker, err := NewChunker(5, 0)
	require.NoError(t, err)

	passages := chunker.Split("0123456789")
	require.Len(t, passages, 2)
	assert.Equal(t, "01234", passages[0].Text)
	assert.Equal(t, "56789", passages[1].Text)
}
