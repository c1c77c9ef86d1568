package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	r, err := New(logger.NewTestLogger(t))
	require.NoError(t, err)
	return r
}

func TestRenderer_FallbackIsUniformAcrossIntents(t *testing.T) {
	r := newTestRenderer(t)
	sel := models.Selection{Fallback: true}

	var outputs []string
	for _, tag := range []string{"food", "parking", "medical", "attraction", "made-up-tag"} {
		outputs = append(outputs, r.Render(models.Intent{Tag: tag}, sel))
	}

	for _, out := range outputs {
		assert.Equal(t, FallbackSentence, out, "every empty-result path renders the one canonical sentence")
	}
}

func TestRenderer_EmptyRecordsAlsoFallBack(t *testing.T) {
	r := newTestRenderer(t)
	out := r.Render(models.Intent{Tag: "food"}, models.Selection{})
	assert.Equal(t, FallbackSentence, out)
}

func TestRenderer_FAQAnswerPassesThrough(t *testing.T) {
	r := newTestRenderer(t)
	sel := models.Selection{Faq: &models.FaqEntry{Answer: "Parking is 200 per hour."}}

	out := r.Render(models.Intent{Tag: "parking"}, sel)
	assert.Equal(t, "Parking is 200 per hour.", out)
}

func TestRenderer_CatalogSelection(t *testing.T) {
	r := newTestRenderer(t)
	sel := models.Selection{Records: []models.CatalogRecord{
		{Name: "Sushi Ten", Address: "12 Elm St", Hours: "11-22", Phone: "555-0101"},
		{Name: "Kyo Kitchen"},
	}}

	out := r.Render(models.Intent{Tag: "food"}, sel)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Here are some places to eat in the district:", lines[0])
	assert.Equal(t, "- Sushi Ten, 12 Elm St, open 11-22, 555-0101", lines[1])
	assert.Equal(t, "- Kyo Kitchen", lines[2], "absent optional fields leave no placeholder")
}

func TestRenderer_UnknownTagUsesDefaultIntro(t *testing.T) {
	r := newTestRenderer(t)
	sel := models.Selection{Records: []models.CatalogRecord{{Name: "Somewhere"}}}

	out := r.Render(models.Intent{Tag: "no-such-tag"}, sel)
	assert.True(t, strings.HasPrefix(out, "Here is what I found in the district:"))
}

func TestRenderer_Statistics(t *testing.T) {
	r := newTestRenderer(t)

	assert.Equal(t, "Our district directory currently lists 1 verified business.", r.RenderStatistics(1))
	assert.Equal(t, "Our district directory currently lists 42 verified businesses.", r.RenderStatistics(42))
	assert.Equal(t, "Our district directory currently lists 0 verified businesses.", r.RenderStatistics(0))
}
