package validator

import (
	"encoding/json"
	"strconv"

	"github.com/tetex-tech/exam-service/internal/models"
)

// looseAnswer defers every field so a malformed variant field never fails the
// whole record.
type looseAnswer struct {
	SelectedOptions json.RawMessage `json:"selectedOptions"`
	Text            json.RawMessage `json:"text"`
	Answers         json.RawMessage `json:"answers"`
	Order           json.RawMessage `json:"order"`
	Timestamp       json.RawMessage `json:"timestamp"`
}

// NormalizeAnswer converts a raw answer record into a type-correct shape for
// grading. It is total: any malformed input yields either nil ("not
// answered", only for absent/null input) or a well-typed answer with safe
// defaults substituted per question type. It never returns an error.
func NormalizeAnswer(raw json.RawMessage, question models.Question) *models.Answer {
	if models.IsNullRaw(raw) {
		return nil
	}

	var loose looseAnswer
	// A record that is not even a JSON object still counts as answered; all
	// its fields fall through to the per-type defaults below.
	_ = json.Unmarshal(raw, &loose)

	out := &models.Answer{}
	if loose.Timestamp != nil {
		var ts int64
		if err := json.Unmarshal(loose.Timestamp, &ts); err == nil {
			out.Timestamp = ts
		}
	}

	switch question.Type {
	case models.SingleChoice, models.MultipleChoice:
		var selected []string
		if err := json.Unmarshal(loose.SelectedOptions, &selected); err != nil || selected == nil {
			selected = []string{}
		}
		out.SelectedOptions = selected

	case models.Text:
		var text string
		if loose.Text != nil {
			_ = json.Unmarshal(loose.Text, &text)
		}
		out.Text = &text

	case models.FillIn:
		var answers map[string]string
		if err := json.Unmarshal(loose.Answers, &answers); err != nil || answers == nil {
			answers = map[string]string{}
		}
		out.Answers = answers

	case models.Sort:
		var order []string
		if err := json.Unmarshal(loose.Order, &order); err != nil || order == nil {
			order = identityOrder(len(question.Items))
		}
		out.Order = order

	default:
		// Unknown variant: keep the record as answered with no typed content
		// so the grader can still account for it.
	}

	return out
}

// identityOrder returns ["0","1",...,"n-1"], the untouched display order of a
// sort question's items.
func identityOrder(n int) []string {
	order := make([]string, n)
	for i := range order {
		order[i] = strconv.Itoa(i)
	}
	return order
}
