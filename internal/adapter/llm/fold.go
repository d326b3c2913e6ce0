package llm

import "quizbench/internal/domain"

// foldMessages rewrites a transcript for providers that do not support
// every role. Content of an unsupported role is folded into the nearest
// message carrying foldRole, the preceding one first, prepended and
// separated by a blank line. A system message opening the transcript is
// therefore carried forward and merged into the first foldRole message
// instead of producing two consecutive contents of the same role. With
// no compatible neighbor at all it becomes its own foldRole message.
// Content is never dropped.
func foldMessages(messages []domain.Message, supported func(role string) bool, foldRole string) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	var pending string
	for _, m := range messages {
		if supported(m.Role) {
			if pending != "" {
				if m.Role == foldRole {
					m.Content = pending + "\n\n" + m.Content
				} else {
					out = append(out, domain.Message{Role: foldRole, Content: pending})
				}
				pending = ""
			}
			out = append(out, m)
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == foldRole {
			out[len(out)-1].Content = m.Content + "\n\n" + out[len(out)-1].Content
			continue
		}
		if pending == "" {
			pending = m.Content
		} else {
			pending += "\n\n" + m.Content
		}
	}
	if pending != "" {
		out = append(out, domain.Message{Role: foldRole, Content: pending})
	}
	return out
}
