package service

import "quizbench/internal/domain"

// modelAggregate is the per-model tally the outcome rules are evaluated
// against. Letters are counted in the magazine "mostly A's" style;
// refused records carry no usable choice and are excluded.
type modelAggregate struct {
	letterCounts map[string]int
	tagCounts    map[string]int
	scoreTotal   int
	scored       bool
}

// ScoreOutcomes maps each model's aggregate choices to the first
// matching outcome rule of the quiz. Models whose answers match no rule
// are omitted; a quiz without outcome rules yields nothing.
func ScoreOutcomes(quiz *domain.QuizDefinition, records []*domain.ResultRecord) []domain.ModelOutcomeSummary {
	if len(quiz.Outcomes) == 0 {
		return nil
	}

	questionByID := make(map[string]*domain.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questionByID[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	aggregates := make(map[string]*modelAggregate)
	var modelOrder []string
	for _, rec := range records {
		agg, found := aggregates[rec.ModelID]
		if !found {
			agg = &modelAggregate{
				letterCounts: make(map[string]int),
				tagCounts:    make(map[string]int),
			}
			aggregates[rec.ModelID] = agg
			modelOrder = append(modelOrder, rec.ModelID)
		}
		if rec.Refused {
			continue
		}
		question, found := questionByID[rec.QuestionID]
		if !found {
			continue
		}
		option := question.OptionByLetter(rec.Choice)
		if option == nil {
			continue
		}
		agg.letterCounts[rec.Choice]++
		for _, tag := range option.Tags {
			agg.tagCounts[tag]++
		}
		if option.Score != nil {
			agg.scoreTotal += *option.Score
			agg.scored = true
		}
	}

	var summaries []domain.ModelOutcomeSummary
	for _, modelID := range modelOrder {
		agg := aggregates[modelID]
		for _, rule := range quiz.Outcomes {
			if agg.matches(&rule.Condition) {
				summaries = append(summaries, domain.ModelOutcomeSummary{
					ModelID:     modelID,
					OutcomeID:   rule.ID,
					Result:      rule.Result,
					Description: rule.Description,
				})
				break
			}
		}
	}
	return summaries
}

// matches evaluates a single condition against the aggregate. The first
// populated condition field determines the rule kind.
func (a *modelAggregate) matches(cond *domain.OutcomeCondition) bool {
	switch {
	case cond.Mostly != "":
		return dominates(a.letterCounts, cond.Mostly)
	case cond.MostlyTag != "":
		return dominates(a.tagCounts, cond.MostlyTag)
	case cond.Score != nil:
		return a.scored && a.scoreTotal == *cond.Score
	case len(cond.ScoreRange) == 2:
		return a.scored && a.scoreTotal >= cond.ScoreRange[0] && a.scoreTotal <= cond.ScoreRange[1]
	default:
		return false
	}
}

// dominates reports whether key holds a strict plurality of counts: it
// was picked at least once and nothing else was picked more often.
func dominates(counts map[string]int, key string) bool {
	target := counts[key]
	if target == 0 {
		return false
	}
	for other, count := range counts {
		if other != key && count > target {
			return false
		}
	}
	return true
}
