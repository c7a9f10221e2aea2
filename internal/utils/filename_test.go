package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips extension",
			input:    "intro.pdf",
			expected: "intro",
		},
		{
			name:     "replaces underscores and dashes",
			input:    "bab_01-pendahuluan.pdf",
			expected: "bab 01 pendahuluan",
		},
		{
			name:     "drops directories",
			input:    "/home/editor/books/chapter_two.pdf",
			expected: "chapter two",
		},
		{
			name:     "drops windows directories",
			input:    `C:\Users\editor\chapter_three.pdf`,
			expected: "chapter three",
		},
		{
			name:     "collapses repeated separators",
			input:    "part__one--draft.pdf",
			expected: "part one draft",
		},
		{
			name:     "strips compound extension",
			input:    "archive.pdf.zip",
			expected: "archive",
		},
		{
			name:     "no extension",
			input:    "Preface",
			expected: "Preface",
		},
		{
			name:     "keeps unicode",
			input:    "Pamiętnik_znaleziony.pdf",
			expected: "Pamiętnik znaleziony",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromFilename(tt.input))
		})
	}
}

func TestStoredFilename(t *testing.T) {
	t.Run("slugifies and keeps extension", func(t *testing.T) {
		assert.Equal(t, "abc-my-cover-photo.png", StoredFilename("abc", "My Cover_Photo.PNG"))
	})

	t.Run("falls back to generic name", func(t *testing.T) {
		assert.Equal(t, "abc-file.jpg", StoredFilename("abc", "???.jpg"))
	})

	t.Run("without prefix", func(t *testing.T) {
		assert.Equal(t, "intro.pdf", StoredFilename("", "intro.pdf"))
	})

	t.Run("truncates long names", func(t *testing.T) {
		name := StoredFilename("", strings.Repeat("a", 200)+".pdf")
		assert.LessOrEqual(t, len(name), 84)
		assert.True(t, strings.HasSuffix(name, ".pdf"))
	})
}
