package grading

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"quiz_platform_backend/internal/model"
)

func twoQuestionQuiz() *model.Quiz {
	quiz := &model.Quiz{
		Questions: []model.Question{
			{
				UUIDBase: model.UUIDBase{ID: "q1"},
				Text:     "First question text",
				Points:   1,
				Options:  []model.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}},
			},
			{
				UUIDBase: model.UUIDBase{ID: "q2"},
				Text:     "Second question text",
				Points:   1,
				Options:  []model.Option{{Text: "wrong"}, {Text: "right", IsCorrect: true}},
			},
		},
	}
	quiz.RecalculateTotalPoints()
	return quiz
}

func answersOf(values ...any) []*RawAnswer {
	out := make([]*RawAnswer, 0, len(values))
	for _, v := range values {
		out = append(out, &RawAnswer{SelectedOption: v})
	}
	return out
}

func TestGradeOfBoundaries(t *testing.T) {
	cases := []struct {
		percentage int
		want       string
	}{
		{100, "A+"}, {97, "A+"}, {96, "A"}, {93, "A"}, {92, "B+"}, {87, "B+"},
		{86, "B"}, {83, "B"}, {82, "C+"}, {77, "C+"}, {76, "C"}, {73, "C"},
		{72, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		if got := GradeOf(tc.percentage); got != tc.want {
			t.Fatalf("GradeOf(%d) = %q, want %q", tc.percentage, got, tc.want)
		}
	}
}

func TestGradeAndPassAreConsistentForEveryPercentage(t *testing.T) {
	for p := 0; p <= 100; p++ {
		if IsPassed(p) != (p >= 60) {
			t.Fatalf("IsPassed(%d) = %t", p, IsPassed(p))
		}
		if (GradeOf(p) == "F") == IsPassed(p) {
			t.Fatalf("grade %q inconsistent with pass state at %d", GradeOf(p), p)
		}
	}
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		earned, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{0, 5, 0},
		{5, 5, 100},
		{3, 0, 0},
	}
	for _, tc := range cases {
		if got := Percentage(tc.earned, tc.total); got != tc.want {
			t.Fatalf("Percentage(%d, %d) = %d, want %d", tc.earned, tc.total, got, tc.want)
		}
	}
}

func TestGradeAllCorrect(t *testing.T) {
	out := Grade(twoQuestionQuiz(), answersOf(0.0, 1.0), 42.0)

	if out.EarnedPoints != 2 || out.TotalPoints != 2 {
		t.Fatalf("points = %d/%d, want 2/2", out.EarnedPoints, out.TotalPoints)
	}
	if out.Percentage != 100 || out.Grade != "A+" || !out.IsPassed {
		t.Fatalf("outcome = %d %s %t, want 100 A+ true", out.Percentage, out.Grade, out.IsPassed)
	}
	if out.TimeSpent != 42 {
		t.Fatalf("TimeSpent = %d, want 42", out.TimeSpent)
	}
}

func TestGradeHalfCorrect(t *testing.T) {
	out := Grade(twoQuestionQuiz(), answersOf(1.0, 1.0), nil)

	if out.CorrectAnswers != 1 || out.EarnedPoints != 1 {
		t.Fatalf("correct/earned = %d/%d, want 1/1", out.CorrectAnswers, out.EarnedPoints)
	}
	if out.Percentage != 50 || out.Grade != "F" || out.IsPassed {
		t.Fatalf("outcome = %d %s %t, want 50 F false", out.Percentage, out.Grade, out.IsPassed)
	}
}

func TestGradeEmptySubmission(t *testing.T) {
	out := Grade(twoQuestionQuiz(), []*RawAnswer{}, nil)

	if len(out.Answers) != 0 {
		t.Fatalf("expected no answer records, got %d", len(out.Answers))
	}
	if out.EarnedPoints != 0 || out.Percentage != 0 || out.Grade != "F" {
		t.Fatalf("outcome = %d %d %s, want 0 0 F", out.EarnedPoints, out.Percentage, out.Grade)
	}
	if out.TotalQuestions != 2 {
		t.Fatalf("TotalQuestions = %d, want 2", out.TotalQuestions)
	}
}

func TestGradeMalformedAnswersScoreAsWrong(t *testing.T) {
	cases := []struct {
		name     string
		selected any
		wantSel  int
	}{
		{"negative", -1.0, model.InvalidOption},
		{"fraction", 0.5, model.InvalidOption},
		{"string", "0", model.InvalidOption},
		{"missing", nil, model.InvalidOption},
		{"out of range", 7.0, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Grade(twoQuestionQuiz(), answersOf(tc.selected, 1.0), nil)

			if len(out.Answers) != 2 {
				t.Fatalf("expected 2 answer records, got %d", len(out.Answers))
			}
			first := out.Answers[0]
			if first.SelectedOption != tc.wantSel || first.IsCorrect || first.Points != 0 {
				t.Fatalf("first answer = %+v, want selected %d scored wrong", first, tc.wantSel)
			}
			if !out.Answers[1].IsCorrect {
				t.Fatalf("second question must still be graded")
			}
			if out.Percentage != 50 {
				t.Fatalf("Percentage = %d, want 50", out.Percentage)
			}
		})
	}
}

func TestGradeSkipsNilAndTrailingAnswers(t *testing.T) {
	quiz := twoQuestionQuiz()
	out := Grade(quiz, []*RawAnswer{nil, {SelectedOption: 1.0}, {SelectedOption: 0.0}}, nil)

	if len(out.Answers) != 1 || out.Answers[0].QuestionID != "q2" {
		t.Fatalf("answers = %+v, want single record for q2", out.Answers)
	}
}

func TestGradeUsesQuestionPointsAndDefaults(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.Questions[0].Points = 3
	quiz.Questions[1].Points = 0
	quiz.RecalculateTotalPoints()

	if quiz.TotalPoints != 4 {
		t.Fatalf("TotalPoints = %d, want 4", quiz.TotalPoints)
	}

	out := Grade(quiz, answersOf(0.0, 0.0), nil)
	if out.EarnedPoints != 3 || out.Percentage != 75 || out.Grade != "C" {
		t.Fatalf("outcome = %d %d %s, want 3 75 C", out.EarnedPoints, out.Percentage, out.Grade)
	}
}

func TestGradeFallsBackToQuestionCount(t *testing.T) {
	quiz := twoQuestionQuiz()
	quiz.TotalPoints = 0

	out := Grade(quiz, answersOf(0.0), nil)
	if out.TotalPoints != 2 || out.Percentage != 50 {
		t.Fatalf("outcome = %d/%d, want total 2 percentage 50", out.TotalPoints, out.Percentage)
	}
}

func TestGradeIsDeterministic(t *testing.T) {
	answers := answersOf(0.0, "x")
	first := Grade(twoQuestionQuiz(), answers, 10.0)
	for i := 0; i < 5; i++ {
		again := Grade(twoQuestionQuiz(), answers, 10.0)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Grade not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestGradeDecodedFromJSON(t *testing.T) {
	var body struct {
		Answers []*RawAnswer `json:"answers"`
	}
	raw := `{"answers":[{"selectedOption":0,"timeSpent":12},null,{"selectedOption":"1"}]}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out := Grade(twoQuestionQuiz(), body.Answers, -5.0)
	if len(out.Answers) != 1 || !out.Answers[0].IsCorrect || out.Answers[0].TimeSpent != 12 {
		t.Fatalf("answers = %+v", out.Answers)
	}
	if out.TimeSpent != 0 {
		t.Fatalf("negative timeSpent must clamp to 0, got %d", out.TimeSpent)
	}
}

func TestOutcomeResultMirrorsScores(t *testing.T) {
	completed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	out := Grade(twoQuestionQuiz(), answersOf(0.0, 1.0), 30.0)
	result := out.Result("user-1", "quiz-1", completed)

	if result.Score != result.EarnedPoints || result.Percentage != 100 || result.Grade != "A+" || !result.IsPassed {
		t.Fatalf("result = %+v", result)
	}
	if !result.CompletedAt.Equal(completed) || result.UserID != "user-1" || result.QuizID != "quiz-1" {
		t.Fatalf("result identity = %+v", result)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("expected answers carried over")
	}
}

func TestGradeNonObjectAnswersScoreAsInvalid(t *testing.T) {
	var body struct {
		Answers []*RawAnswer `json:"answers"`
	}
	raw := `{"answers":[5,{"selectedOption":1,"timeSpent":"7"}]}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out := Grade(twoQuestionQuiz(), body.Answers, 10.0)
	if len(out.Answers) != 2 {
		t.Fatalf("answers = %+v", out.Answers)
	}
	if first := out.Answers[0]; first.SelectedOption != model.InvalidOption || first.IsCorrect {
		t.Fatalf("non-object answer = %+v", first)
	}
	if second := out.Answers[1]; !second.IsCorrect || second.SelectedOption != 1 {
		t.Fatalf("second answer = %+v", second)
	}
	if out.CorrectAnswers != 1 || out.Percentage != 50 {
		t.Fatalf("outcome = %+v", out)
	}

	for _, value := range []string{`"x"`, `[1,2]`, `true`} {
		var a RawAnswer
		if err := json.Unmarshal([]byte(value), &a); err != nil {
			t.Fatalf("unmarshal %s: %v", value, err)
		}
		if a.SelectedOption != nil || a.TimeSpent != nil {
			t.Fatalf("unmarshal %s = %+v, want empty answer", value, a)
		}
	}
}
