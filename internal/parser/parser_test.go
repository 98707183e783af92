package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmihealth/planpipe/internal/models"
)

const validOutput = "Here is your plan.\n" +
	"```yaml\n" +
	"reasoning: |\n" +
	"  Dana is easing back into running.\n" +
	"goal: Build consistency\n" +
	"sms_message: \"Hey Dana! Your plan is ready.\"\n" +
	"weeks:\n" +
	"  - goal: \"Settle into a routine\"\n" +
	"    week_start_date: \"2025-06-02\"\n" +
	"    dates:\n" +
	"      - date: \"2025-06-03\"\n" +
	"        workouts:\n" +
	"          - type: \"Easy Run\"\n" +
	"            title: \"Shakeout Run\"\n" +
	"            summary: \"Easy aerobic miles.\"\n" +
	"            notes: \"Keep it conversational.\"\n" +
	"            duration: 40\n" +
	"            distance: 4\n" +
	"            focus: null\n" +
	"            effort: \"3\"\n" +
	"            activity: null\n" +
	"            steps:\n" +
	"              - name: \"Run\"\n" +
	"                description: \"40 min easy.\"\n" +
	"            before_tips:\n" +
	"              - \"Fuel with carbs and protein.\"\n" +
	"            after_tips:\n" +
	"              - \"Protein within 30 minutes.\"\n" +
	"      - date: \"2025-06-04\"\n" +
	"        workouts:\n" +
	"          - type: \"Rest and Recovery\"\n" +
	"            title: \"Rest Day\"\n" +
	"            summary: \"Full rest.\"\n" +
	"            duration: null\n" +
	"            distance: null\n" +
	"            effort: \"Rest\"\n" +
	"            steps: []\n" +
	"```\n" +
	"Enjoy!\n"

func TestParseValidOutput(t *testing.T) {
	p := New(nil)
	doc, err := p.Parse(context.Background(), validOutput)
	require.NoError(t, err)

	assert.Equal(t, "Build consistency", doc.Goal)
	assert.Equal(t, "Hey Dana! Your plan is ready.", doc.SMSMessage)
	require.Len(t, doc.Weeks, 1)
	require.Len(t, doc.Weeks[0].Dates, 2)

	run := doc.Weeks[0].Dates[0].Workouts[0]
	assert.Equal(t, "Easy Run", run.Type)
	require.NotNil(t, run.Duration)
	assert.Equal(t, 40, *run.Duration)
	assert.Equal(t, "3", run.Effort)

	rest := doc.Weeks[0].Dates[1].Workouts[0]
	assert.Nil(t, rest.Duration)
	assert.Equal(t, "Rest", rest.Effort)
}

func TestParseNoBlock(t *testing.T) {
	p := New(nil)
	_, err := p.Parse(context.Background(), "Sorry, I could not generate a plan today.")
	assert.ErrorIs(t, err, ErrNoStructuredBlock)
}

func TestExtractBlockUsesLastClosingFence(t *testing.T) {
	// Step descriptions may themselves contain fenced snippets; the block
	// must be sliced to the LAST closing fence.
	content := "```yaml\n" +
		"goal: test\n" +
		"notes: |\n" +
		"  example:\n" +
		"  ```\n" +
		"  - name: Warm-Up\n" +
		"  ```\n" +
		"weeks: []\n" +
		"```\n"
	block, err := ExtractBlock(content)
	require.NoError(t, err)
	assert.Contains(t, block, "weeks: []")
	assert.Contains(t, block, "- name: Warm-Up")
}

func TestParseEmptyDocumentRejected(t *testing.T) {
	p := New(nil)
	_, err := p.Parse(context.Background(), "```yaml\n# nothing here\n```\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, parseErr.LastErr, ErrEmptyDocument)
}

func TestParseMalformedThenRepaired(t *testing.T) {
	// Unescaped quote makes the first parse fail; the repair call returns a
	// corrected block and the second parse succeeds.
	broken := "```yaml\n" +
		"goal: \"unterminated\n" +
		"weeks: []\n" +
		"```\n"
	fixed := "```yaml\n" +
		"goal: \"repaired\"\n" +
		"weeks:\n" +
		"  - goal: w1\n" +
		"    week_start_date: \"2025-06-02\"\n" +
		"    dates: []\n" +
		"```\n"

	calls := 0
	p := New(func(ctx context.Context, text, parseErr string) (string, error) {
		calls++
		assert.Contains(t, text, "unterminated")
		assert.NotEmpty(t, parseErr)
		return fixed, nil
	})

	doc, err := p.Parse(context.Background(), broken)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "repaired", doc.Goal)
}

func TestParseRepairBoundedTermination(t *testing.T) {
	broken := "```yaml\n: : :\nnot yaml at all ][\n```\n"

	calls := 0
	p := New(func(ctx context.Context, text, parseErr string) (string, error) {
		calls++
		return broken, nil // never succeeds
	})

	_, err := p.Parse(context.Background(), broken)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, DefaultMaxRepairAttempts, calls, "repair must run exactly the bounded number of times")
	assert.Equal(t, DefaultMaxRepairAttempts, parseErr.Attempts)
	assert.Error(t, parseErr.LastErr)
}

func TestParseRepairCallFailure(t *testing.T) {
	broken := "```yaml\n{ not: [ valid\n```\n"
	p := New(func(ctx context.Context, text, parseErr string) (string, error) {
		return "", errors.New("reformat model unavailable")
	})

	_, err := p.Parse(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repair call failed")
}

func TestRenderRoundTrip(t *testing.T) {
	duration := 45
	distance := 5.5
	focus := "lower_body"
	doc := &models.PlanDocument{
		Reasoning:  "steady build",
		Goal:       "finish a 10k",
		SMSMessage: "You got this!",
		Weeks: []models.PlanWeek{
			{
				Goal:          "base week",
				WeekStartDate: "2025-06-02",
				Dates: []models.PlanDay{
					{
						Date: "2025-06-03",
						Workouts: []models.WorkoutInfo{
							{
								Type:       "Strength Training",
								Title:      "Foundational Strength",
								Summary:    "Lower body focus.",
								Notes:      "Form over load.",
								Duration:   &duration,
								Distance:   &distance,
								Focus:      &focus,
								Effort:     "4",
								Steps:      []models.WorkoutStep{{Name: "Squats", Description: "3x10"}},
								BeforeTips: []string{"Eat something light."},
								AfterTips:  []string{"Protein after."},
							},
						},
					},
				},
			},
		},
	}

	rendered, err := Render(doc)
	require.NoError(t, err)

	parsed, err := New(nil).Parse(context.Background(), rendered)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}
