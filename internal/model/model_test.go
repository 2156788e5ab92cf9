package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkStepKeepsSortedUniqueSet(t *testing.T) {
	c := &Course{}
	c.MarkStep(StepMedia)
	c.MarkStep(StepBasics)
	c.MarkStep(StepMedia)
	c.MarkStep(StepCurriculum)

	assert.Equal(t, []int{1, 2, 3}, []int(c.StepsCompleted))
	assert.True(t, c.HasStep(StepMedia))
}

func TestActorIsRequiresNonEmptyMatch(t *testing.T) {
	assert.False(t, Actor{}.Is(""))
	assert.False(t, Actor{UserID: "u1"}.Is("u2"))
	assert.True(t, Actor{UserID: "u1"}.Is("u1"))
}

func TestNewTopicContentRequiresVariantField(t *testing.T) {
	tests := []struct {
		name    string
		typ     TopicType
		raw     string
		wantErr bool
	}{
		{"video ok", TopicVideo, `{"videoUrl":"https://cdn/v.mp4"}`, false},
		{"video missing url", TopicVideo, `{"pdfUrl":"x"}`, true},
		{"pdf ok", TopicPDF, `{"pdfUrl":"https://cdn/a.pdf"}`, false},
		{"text blank", TopicText, `{"textContent":"   "}`, true},
		{"quiz ok", TopicQuiz, `{"quizId":"q1"}`, false},
		{"null content", TopicText, `null`, true},
		{"unknown type", TopicType("audio"), `{}`, true},
		{"not an object", TopicVideo, `"https://cdn/v.mp4"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := NewTopicContent(tt.typ, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, content.TopicType())
		})
	}
}

func TestTopicJSONKeepsVariant(t *testing.T) {
	in := Topic{ID: "t1", Title: "Intro", Type: TopicQuiz, Order: 2, Content: QuizContent{QuizID: "q9"}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t1","title":"Intro","type":"quiz","description":"","order":2,"content":{"quizId":"q9"}}`, string(data))

	var out Topic
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, "q9", out.QuizID())
}

func TestTopicQuizIDOnlyForQuizTopics(t *testing.T) {
	topic := Topic{Type: TopicVideo, Content: VideoContent{VideoURL: "v"}}
	assert.Empty(t, topic.QuizID())

	m := Module{Topics: []Topic{
		topic,
		{Type: TopicQuiz, Content: QuizContent{QuizID: "q1"}},
		{Type: TopicQuiz, Content: QuizContent{}},
		{Type: TopicQuiz, Content: QuizContent{QuizID: "q2"}},
	}}
	assert.Equal(t, []string{"q1", "q2"}, m.QuizIDs())
}

func intPtr(v int) *int { return &v }

func validDefinition() *QuizDefinition {
	return &QuizDefinition{
		Title: " Basics ",
		Questions: []Question{{
			Prompt:        "2+2?",
			Options:       map[string]string{"a": "3", "B": "4", "C": " "},
			CorrectAnswer: "b",
		}},
	}
}

func TestQuizDefinitionNormalizeAppliesDefaults(t *testing.T) {
	def := validDefinition()
	require.NoError(t, def.Normalize())

	assert.Equal(t, "Basics", def.Title)
	assert.Equal(t, DefaultPassingScore, *def.PassingScore)
	assert.Equal(t, DefaultTimeLimit, *def.TimeLimit)
	assert.Equal(t, map[string]string{"A": "3", "B": "4"}, def.Questions[0].Options)
	assert.Equal(t, "B", def.Questions[0].CorrectAnswer)
}

func TestQuizDefinitionNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *QuizDefinition)
		field  string
	}{
		{"no questions", func(d *QuizDefinition) { d.Questions = nil }, "questions"},
		{"answer not an option", func(d *QuizDefinition) { d.Questions[0].CorrectAnswer = "D" }, "questions[0]"},
		{"single option", func(d *QuizDefinition) { d.Questions[0].Options = map[string]string{"B": "4"} }, "questions[0]"},
		{"letter outside A-E", func(d *QuizDefinition) { d.Questions[0].Options["F"] = "5" }, "questions[0]"},
		{"passing score too high", func(d *QuizDefinition) { d.PassingScore = intPtr(101) }, "passingScore"},
		{"zero time limit", func(d *QuizDefinition) { d.TimeLimit = intPtr(0) }, "timeLimit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(def)
			err := def.Normalize()
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestQuizViewRedactsAnswers(t *testing.T) {
	quiz := &Quiz{Questions: []Question{{Prompt: "p", Options: map[string]string{"A": "x", "B": "y"}, CorrectAnswer: "A"}}}

	redacted := quiz.View(false)
	assert.Equal(t, 1, redacted.QuestionCount)
	assert.Empty(t, redacted.Questions[0].CorrectAnswer)
	data, err := json.Marshal(redacted)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correctAnswer")

	assert.Equal(t, "A", quiz.View(true).Questions[0].CorrectAnswer)
}

func TestQuizGrade(t *testing.T) {
	quiz := &Quiz{
		PassingScore: 60,
		Questions: []Question{
			{CorrectAnswer: "A"},
			{CorrectAnswer: "B"},
			{CorrectAnswer: "C"},
		},
	}

	result := quiz.Grade(map[int]string{0: "a", 1: "C"})
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 33, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, []int{1}, result.Incorrect)
	assert.Equal(t, []int{2}, result.Unanswered)

	result = quiz.Grade(map[int]string{0: "A", 1: "B", 2: "D"})
	assert.Equal(t, 66, result.Score)
	assert.True(t, result.Passed)
}

func TestEnrollmentActiveKey(t *testing.T) {
	e := &Enrollment{StudentID: "s1", CourseID: "c1"}
	e.Activate()
	require.NotNil(t, e.ActiveKey)
	assert.Equal(t, EnrollmentKey("s1", "c1"), *e.ActiveKey)
	assert.Equal(t, EnrollmentActive, e.Status)

	e.Cancel()
	assert.Nil(t, e.ActiveKey)
	assert.True(t, e.IsCancelled())
}
