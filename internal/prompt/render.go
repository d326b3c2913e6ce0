package prompt

import (
	"fmt"
	"strings"

	"quizbench/internal/domain"
)

// Context carries everything the renderer needs for one question.
// Question numbering is 1-based and semantically load-bearing: the
// prompt tells the model which question of how many it is answering.
type Context struct {
	QuizTitle      string
	QuestionNumber int
	QuestionTotal  int
	QuestionText   string
	Options        []string
}

const systemPrompt = "You are taking a lighthearted magazine personality quiz.\n" +
	"For this quiz, role-play as a human answering honestly for fun."

// RenderMessages builds the chat transcript for a single question.
// Options are lettered by position (A, B, C, ...) and the STRICT JSON
// instruction constrains the choice to exactly the offered letters, so
// a model cannot legally pick an option that does not exist.
func RenderMessages(ctx Context) ([]domain.Message, error) {
	if len(ctx.Options) == 0 {
		return nil, domain.NewInvalidInputError("cannot render a question without options")
	}
	if len(ctx.Options) > domain.MaxOptionsPerQuestion {
		return nil, domain.NewConfigError(
			fmt.Sprintf("question offers %d options; the letter scheme supports at most %d",
				len(ctx.Options), domain.MaxOptionsPerQuestion))
	}

	letters := make([]string, len(ctx.Options))
	for i := range ctx.Options {
		letters[i] = domain.OptionLetter(i)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %q\n", ctx.QuizTitle)
	fmt.Fprintf(&b, "Question %d/%d: %s\n\n", ctx.QuestionNumber, ctx.QuestionTotal, ctx.QuestionText)
	b.WriteString("Choose ONE option by letter and give a brief reason.\n\n")
	b.WriteString("Options:\n")
	for i, opt := range ctx.Options {
		fmt.Fprintf(&b, "%s) %s\n", letters[i], opt)
	}
	b.WriteString("\nRespond in STRICT JSON only:\n")
	fmt.Fprintf(&b, `{"choice":"<%s>","reason":"<one short sentence>"}`, strings.Join(letters, "|"))

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: b.String()},
	}, nil
}

// Render returns the transcript as one displayable string. Useful for
// logging and prompt inspection; adapters consume RenderMessages.
func Render(ctx Context) (string, error) {
	messages, err := RenderMessages(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s:\n%s", strings.ToUpper(msg.Role), msg.Content)
	}
	return b.String(), nil
}
