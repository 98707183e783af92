package prompt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmihealth/planpipe/internal/models"
	"github.com/emmihealth/planpipe/internal/parser"
)

func testInput() Input {
	age := 34
	return Input{
		Profile: &models.Profile{
			UserID:               "user-1",
			Name:                 "Dana",
			Age:                  &age,
			Goals:                []string{"Run a half marathon"},
			RunningExperience:    "Intermediate",
			Injuries:             "IT band tightness",
			PreferredLongRunDays: []string{"Su"},
		},
		PlanID: "plan-42",
		Window: models.Window{
			Today: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			UpTo:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestComposeDeterministic(t *testing.T) {
	c := NewComposer()
	first, err := c.Compose(testInput())
	require.NoError(t, err)
	second, err := c.Compose(testInput())
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical inputs must compose to identical requests")
}

func TestComposeContainsWindowAndProfile(t *testing.T) {
	c := NewComposer()
	req, err := c.Compose(testInput())
	require.NoError(t, err)

	assert.Contains(t, req.Prompt, "Today is 2025-06-02.")
	assert.Contains(t, req.Prompt, "up to (2025-06-15)")
	assert.Contains(t, req.Prompt, `"name": "Dana"`)
	assert.Contains(t, req.Prompt, `"injuries": "IT band tightness"`)
	// Missing fields are serialized as null, not dropped.
	assert.Contains(t, req.Prompt, `"race_name": null`)
	assert.Contains(t, req.Prompt, `"weight_lbs": null`)
}

func TestComposeSectionOrder(t *testing.T) {
	c := NewComposer()
	req, err := c.Compose(testInput())
	require.NoError(t, err)

	persona := strings.Index(req.Prompt, "You are an encouraging")
	kb := strings.Index(req.Prompt, "# Knowledge base")
	guide := strings.Index(req.Prompt, "# Guidelines for a good training plan")
	window := strings.Index(req.Prompt, "Today is 2025-06-02")
	profile := strings.Index(req.Prompt, "The following is the user's profile:")
	task := strings.Index(req.Prompt, "Write a training plan for the user.")

	require.True(t, persona >= 0 && kb > 0 && guide > 0 && window > 0 && profile > 0 && task > 0)
	assert.True(t, persona < kb && kb < guide && guide < window && window < profile && profile < task,
		"static material must precede the live request")
}

func TestComposePlanURL(t *testing.T) {
	c := NewComposer(WithBaseURL("https://app.example.com/"))
	req, err := c.Compose(testInput())
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "https://app.example.com/plans/plan-42")
	assert.NotContains(t, req.Prompt, "{plan_url}")
}

func TestComposeRequiresProfile(t *testing.T) {
	c := NewComposer()
	in := testInput()
	in.Profile = nil
	_, err := c.Compose(in)
	assert.Error(t, err)
}

func TestExemplarOutputParses(t *testing.T) {
	// The worked example must satisfy the same output contract we ask the
	// model to follow, or it teaches the wrong format.
	doc, err := parser.New(nil).Parse(context.Background(), exemplarOutput)
	require.NoError(t, err)
	require.Len(t, doc.Weeks, 3)
	assert.NotEmpty(t, doc.SMSMessage)
	for _, week := range doc.Weeks {
		assert.NotEmpty(t, week.Goal)
		assert.NotEmpty(t, week.WeekStartDate)
		assert.NotEmpty(t, week.Dates)
	}
}

func TestExemplarInputMatchesTemplate(t *testing.T) {
	in := exemplarInput()
	assert.Contains(t, in, "Today is 2025-03-19.")
	assert.Contains(t, in, "up to (2025-04-06)")
	assert.Contains(t, in, `"name": "Rosie"`)
	assert.Contains(t, in, "https://emmi.com/plans/1234")
}
