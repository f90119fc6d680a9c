package service_test

import (
	"testing"

	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScholarLabTemplate(t *testing.T) {
	tpl, err := service.DefaultScholarLabTemplate()
	require.NoError(t, err)
	assert.Equal(t, "Research plan", tpl.Board.Name)
	require.Len(t, tpl.Lists, 3)
	assert.Equal(t, "Onboarding", tpl.Lists[0].Name)
	assert.Len(t, tpl.Lists[0].Tasks, 3)
}

func TestParseScholarLabTemplate(t *testing.T) {
	tpl, err := service.ParseScholarLabTemplate([]byte(`
workspace:
  name: "{student} lab"
board:
  name: Plan
lists:
  - name: Todo
    tasks:
      - title: Read
`))
	require.NoError(t, err)
	assert.Equal(t, "{student} lab", tpl.Workspace.Name)
	assert.Equal(t, "Read", tpl.Lists[0].Tasks[0].Title)

	_, err = service.ParseScholarLabTemplate([]byte("lists: [\n"))
	assert.Error(t, err)
}
