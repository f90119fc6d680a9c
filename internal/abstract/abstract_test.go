package abstract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "We study how graph neural networks can predict gene regulatory interactions from single cell expression data across tissues."

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		err  error
	}{
		{
			name: "heading on its own line",
			text: "ML for Genomics\n\nAbstract\n" + body + "\n\nKeywords: genomics, GNN\n\nMore text.",
			want: body,
		},
		{
			name: "inline after colon",
			text: "Title\n\nAbstract: " + body + "\n\n1. Introduction\nIntro text.",
			want: body,
		},
		{
			name: "markdown heading stops at next heading",
			text: "# Proposal\n\n## Summary\n\n" + body + "\n\n## Methods\n\nWe will do things.",
			want: body,
		},
		{
			name: "bold heading",
			text: "**Abstract**\n" + body + "\nIntroduction\nIntro.",
			want: body,
		},
		{
			name: "multi paragraph section",
			text: "Abstract\n" + body + "\n\n" + body + "\n\nReferences\n[1] x",
			want: body + "\n\n" + body,
		},
		{
			name: "fallback to first long paragraph",
			text: "Short title\n\n" + body + "\n\nAnother paragraph.",
			want: body,
		},
		{
			name: "wrapped lines are joined",
			text: "Abstract\nWe study how graph neural networks can predict\n   gene regulatory interactions from single cell\nexpression data across tissues.\n\nIntroduction",
			want: body,
		},
		{
			name: "too short section",
			text: "Abstract\nToo short.\n\nIntroduction\n" + body,
			err:  ErrTooShort,
		},
		{
			name: "no abstract",
			text: "Title\n\nshort\n\nalso short",
			err:  ErrNoAbstract,
		},
		{
			name: "empty",
			text: "  \n\n ",
			err:  ErrNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.text)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSentenceStartingWithSummaryIsNotHeading(t *testing.T) {
	text := "Summary of prior work shows that " + body
	got, err := Extract(text)
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestExtractCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	got, err := Extract("Abstract\n" + long)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(got)), MaxLength)
}
