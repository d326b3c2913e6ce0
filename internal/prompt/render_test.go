package prompt

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"quizbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAssignsLettersByPosition(t *testing.T) {
	out, err := Render(Context{
		QuizTitle:      "Which Drink Are You?",
		QuestionNumber: 1,
		QuestionTotal:  5,
		QuestionText:   "Pick a morning ritual:",
		Options:        []string{"Coffee", "Tea", "Water"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "A) Coffee")
	assert.Contains(t, out, "B) Tea")
	assert.Contains(t, out, "C) Water")
	assert.Contains(t, out, `"choice":"<A|B|C>"`)
	assert.NotContains(t, out, "D)")
	assert.NotContains(t, out, "|D")
}

func TestRenderCarriesQuestionPosition(t *testing.T) {
	out, err := Render(Context{
		QuizTitle:      "Quiz",
		QuestionNumber: 3,
		QuestionTotal:  7,
		QuestionText:   "Q",
		Options:        []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Question 3/7")
}

func TestRenderIsDeterministic(t *testing.T) {
	ctx := Context{QuizTitle: "T", QuestionNumber: 1, QuestionTotal: 1, QuestionText: "Q", Options: []string{"a", "b"}}
	first, err := Render(ctx)
	require.NoError(t, err)
	second, err := Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderSupportsSixOptions(t *testing.T) {
	opts := []string{"one", "two", "three", "four", "five", "six"}
	out, err := Render(Context{QuizTitle: "T", QuestionNumber: 1, QuestionTotal: 1, QuestionText: "Q", Options: opts})
	require.NoError(t, err)
	assert.Contains(t, out, "F) six")
	assert.Contains(t, out, `"choice":"<A|B|C|D|E|F>"`)
}

func TestRenderRejectsOptionOverflow(t *testing.T) {
	opts := make([]string, domain.MaxOptionsPerQuestion+1)
	for i := range opts {
		opts[i] = fmt.Sprintf("opt-%d", i)
	}
	_, err := Render(Context{QuizTitle: "T", QuestionNumber: 1, QuestionTotal: 1, QuestionText: "Q", Options: opts})
	require.Error(t, err)

	var derr *domain.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, domain.ErrConfig, derr.Code)
}

func TestRenderRejectsEmptyOptions(t *testing.T) {
	_, err := Render(Context{QuizTitle: "T", QuestionNumber: 1, QuestionTotal: 1, QuestionText: "Q"})
	require.Error(t, err)
}

func TestRenderLetterSetNeverPadded(t *testing.T) {
	out, err := Render(Context{QuizTitle: "T", QuestionNumber: 1, QuestionTotal: 1, QuestionText: "Q", Options: []string{"yes", "no"}})
	require.NoError(t, err)
	// Exactly two lettered lines.
	assert.Equal(t, 1, strings.Count(out, "A) "))
	assert.Equal(t, 1, strings.Count(out, "B) "))
	assert.Equal(t, 0, strings.Count(out, "C) "))
}
