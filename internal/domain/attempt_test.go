package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreAnswer(t *testing.T) {
	correct := []string{"a", "b"}

	tests := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"ExactMatch", []string{"a", "b"}, true},
		{"OrderDoesNotMatter", []string{"b", "a"}, true},
		{"Subset", []string{"a"}, false},
		{"Superset", []string{"a", "b", "c"}, false},
		{"UnknownOption", []string{"a", "x"}, false},
		{"Empty", nil, false},
		{"DuplicatesCollapse", []string{"a", "a", "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreAnswer(correct, tt.selected))
		})
	}
}

func TestQuestion_ValidateStructure(t *testing.T) {
	t.Run("TooFewOptions", func(t *testing.T) {
		q := Question{
			QuestionType: QuestionSingleChoice,
			Options:      []Option{{ID: "a", IsCorrect: true}},
		}
		assert.Error(t, q.ValidateStructure())
	})

	t.Run("TrueFalseNeedsExactlyOneCorrect", func(t *testing.T) {
		q := Question{
			QuestionType: QuestionTrueFalse,
			Options: []Option{
				{ID: "t", IsCorrect: true},
				{ID: "f", IsCorrect: true},
			},
		}
		assert.Error(t, q.ValidateStructure())
	})

	t.Run("MultipleChoiceAllowsSeveralCorrect", func(t *testing.T) {
		q := Question{
			QuestionType: QuestionMultipleChoice,
			Options: []Option{
				{ID: "a", IsCorrect: true},
				{ID: "b", IsCorrect: true},
				{ID: "c"},
			},
		}
		assert.NoError(t, q.ValidateStructure())
	})
}
