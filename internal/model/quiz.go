package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

const (
	DefaultPassingScore = 70
	DefaultTimeLimit    = 30
)

// OptionLetters 选项只允许 A-E
var OptionLetters = []string{"A", "B", "C", "D", "E"}

func isOptionLetter(s string) bool {
	for _, l := range OptionLetters {
		if l == s {
			return true
		}
	}
	return false
}

// Question 单选题
type Question struct {
	Prompt        string            `json:"prompt"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer"`
}

func (q *Question) normalize() error {
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Prompt == "" {
		return errors.New("prompt is required")
	}
	options := make(map[string]string, len(q.Options))
	for letter, text := range q.Options {
		letter = strings.ToUpper(strings.TrimSpace(letter))
		if !isOptionLetter(letter) {
			return fmt.Errorf("option %q is not one of A-E", letter)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		options[letter] = text
	}
	if len(options) < 2 {
		return errors.New("at least two options are required")
	}
	q.Options = options
	q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
	if _, ok := q.Options[q.CorrectAnswer]; !ok {
		return fmt.Errorf("correct answer %q is not among the supplied options", q.CorrectAnswer)
	}
	return nil
}

// QuizDefinition 创建或更新测验的输入
type QuizDefinition struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions"`
	PassingScore *int       `json:"passingScore"`
	TimeLimit    *int       `json:"timeLimit"`
}

// FieldError 指明出错的字段
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// Normalize 校验题目并补全默认值
func (d *QuizDefinition) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	if len(d.Questions) == 0 {
		return &FieldError{Field: "questions", Err: errors.New("at least one question is required")}
	}
	for i := range d.Questions {
		if err := d.Questions[i].normalize(); err != nil {
			return &FieldError{Field: fmt.Sprintf("questions[%d]", i), Err: err}
		}
	}
	if d.PassingScore == nil {
		v := DefaultPassingScore
		d.PassingScore = &v
	} else if *d.PassingScore < 0 || *d.PassingScore > 100 {
		return &FieldError{Field: "passingScore", Err: errors.New("must be between 0 and 100")}
	}
	if d.TimeLimit == nil {
		v := DefaultTimeLimit
		d.TimeLimit = &v
	} else if *d.TimeLimit <= 0 {
		return &FieldError{Field: "timeLimit", Err: errors.New("must be a positive number of minutes")}
	}
	return nil
}

// Quiz 独立存储的测验，topic_id 反向指向所属主题
// swagger:model
type Quiz struct {
	DocumentBase
	Title        string                        `gorm:"size:200" json:"title"`
	Description  string                        `gorm:"type:text" json:"description"`
	CourseID     string                        `gorm:"type:varchar(36);index" json:"courseId"`
	ModuleID     string                        `gorm:"type:varchar(36);index" json:"moduleId"`
	TopicID      string                        `gorm:"type:varchar(36);index" json:"topicId"`
	Questions    datatypes.JSONSlice[Question] `json:"questions"`
	PassingScore int                           `json:"passingScore"`
	TimeLimit    int                           `json:"timeLimit"`
}

// Apply 用已校验的定义覆盖测验内容
func (q *Quiz) Apply(d *QuizDefinition) {
	q.Title = d.Title
	q.Description = d.Description
	q.Questions = append(datatypes.JSONSlice[Question]{}, d.Questions...)
	q.PassingScore = *d.PassingScore
	q.TimeLimit = *d.TimeLimit
}

// QuestionView 输出用题目，非讲师不含答案
type QuestionView struct {
	Prompt        string            `json:"prompt"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer,omitempty"`
}

// QuizView 测验输出
// swagger:model
type QuizView struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CourseID      string         `json:"courseId"`
	ModuleID      string         `json:"moduleId"`
	TopicID       string         `json:"topicId"`
	QuestionCount int            `json:"questionCount"`
	Questions     []QuestionView `json:"questions"`
	PassingScore  int            `json:"passingScore"`
	TimeLimit     int            `json:"timeLimit"`
}

func (q *Quiz) View(withAnswers bool) QuizView {
	view := QuizView{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		CourseID:      q.CourseID,
		ModuleID:      q.ModuleID,
		TopicID:       q.TopicID,
		QuestionCount: len(q.Questions),
		Questions:     make([]QuestionView, 0, len(q.Questions)),
		PassingScore:  q.PassingScore,
		TimeLimit:     q.TimeLimit,
	}
	for _, question := range q.Questions {
		qv := QuestionView{Prompt: question.Prompt, Options: question.Options}
		if withAnswers {
			qv.CorrectAnswer = question.CorrectAnswer
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// QuizResult 一次作答的评分结果
type QuizResult struct {
	QuizID       string `json:"quizId"`
	Total        int    `json:"total"`
	Correct      int    `json:"correct"`
	Score        int    `json:"score"`
	PassingScore int    `json:"passingScore"`
	Passed       bool   `json:"passed"`
	Unanswered   []int  `json:"unanswered,omitempty"`
	Incorrect    []int  `json:"incorrect,omitempty"`
}

// Grade 按题目下标对比答案，answers 的 key 为题目序号（从 0 开始）
func (q *Quiz) Grade(answers map[int]string) QuizResult {
	result := QuizResult{QuizID: q.ID, Total: len(q.Questions), PassingScore: q.PassingScore}
	for i, question := range q.Questions {
		answer, ok := answers[i]
		if !ok || strings.TrimSpace(answer) == "" {
			result.Unanswered = append(result.Unanswered, i)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), question.CorrectAnswer) {
			result.Correct++
		} else {
			result.Incorrect = append(result.Incorrect, i)
		}
	}
	if result.Total > 0 {
		result.Score = result.Correct * 100 / result.Total
	}
	result.Passed = result.Score >= result.PassingScore
	sort.Ints(result.Unanswered)
	sort.Ints(result.Incorrect)
	return result
}
