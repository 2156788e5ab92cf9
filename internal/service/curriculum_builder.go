package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// ModuleInput 步骤三提交的章节
type ModuleInput struct {
	Title     string         `json:"title"`
	Order     *int           `json:"order"`
	Topics    []TopicInput   `json:"topics"`
	Summaries []SummaryInput `json:"summaries"`
}

// TopicInput content 的结构由 type 决定，quiz 类型为测验定义
type TopicInput struct {
	Title       string          `json:"title"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Order       *int            `json:"order"`
	Content     json.RawMessage `json:"content" swaggertype:"object"`
}

type SummaryInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CurriculumPlan 已校验的课程大纲，尚未写入
type CurriculumPlan struct {
	Modules []PlannedModule
}

type PlannedModule struct {
	Title     string
	Order     int
	Topics    []PlannedTopic
	Summaries []SummaryInput
}

type PlannedTopic struct {
	Title       string
	Type        model.TopicType
	Description string
	Order       int
	Content     model.TopicContent
	Quiz        *model.QuizDefinition
}

// CurriculumBuilder 校验并整体替换课程大纲
type CurriculumBuilder struct{}

func NewCurriculumBuilder() *CurriculumBuilder {
	return &CurriculumBuilder{}
}

// Plan 纯校验，不触碰存储；order 缺省时按数组位置（从 1 开始）补齐
func (b *CurriculumBuilder) Plan(inputs []ModuleInput) (*CurriculumPlan, error) {
	plan := &CurriculumPlan{Modules: make([]PlannedModule, 0, len(inputs))}
	type orderOwner struct {
		index    int
		explicit bool
	}
	seen := make(map[int]orderOwner, len(inputs))

	for i, in := range inputs {
		field := fmt.Sprintf("modules[%d]", i)
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return nil, util.NewValidationError(field+".title", "module title is required")
		}

		order := i + 1
		if in.Order != nil {
			order = *in.Order
		}
		if order < 0 {
			return nil, util.NewValidationError(field+".order", "order must not be negative")
		}
		if prev, dup := seen[order]; dup {
			return nil, orderConflict(order, prev.index, prev.explicit, i, in.Order != nil)
		}
		seen[order] = orderOwner{index: i, explicit: in.Order != nil}

		topics, err := b.planTopics(field, in.Topics)
		if err != nil {
			return nil, err
		}

		summaries := make([]SummaryInput, 0, len(in.Summaries))
		for j, s := range in.Summaries {
			s.Title = strings.TrimSpace(s.Title)
			if s.Title == "" {
				return nil, util.NewValidationError(fmt.Sprintf("%s.summaries[%d].title", field, j), "summary title is required")
			}
			summaries = append(summaries, s)
		}

		plan.Modules = append(plan.Modules, PlannedModule{
			Title:     title,
			Order:     order,
			Topics:    topics,
			Summaries: summaries,
		})
	}

	sort.SliceStable(plan.Modules, func(i, j int) bool {
		return plan.Modules[i].Order < plan.Modules[j].Order
	})
	return plan, nil
}

// orderConflict 冲突字段总是指向调用方显式给出的 order；缺省值按数组位置补齐，需在消息中说明
func orderConflict(order, prev int, prevExplicit bool, cur int, curExplicit bool) error {
	switch {
	case curExplicit && prevExplicit:
		return util.NewConflictError(fmt.Sprintf("modules[%d].order", cur),
			fmt.Sprintf("order %d is already used by modules[%d]", order, prev))
	case curExplicit:
		return util.NewConflictError(fmt.Sprintf("modules[%d].order", cur),
			fmt.Sprintf("order %d is already taken by modules[%d], which has no order and defaults to its position", order, prev))
	default:
		return util.NewConflictError(fmt.Sprintf("modules[%d].order", prev),
			fmt.Sprintf("order %d collides with modules[%d], which has no order and defaults to its position", order, cur))
	}
}

func (b *CurriculumBuilder) planTopics(moduleField string, inputs []TopicInput) ([]PlannedTopic, error) {
	topics := make([]PlannedTopic, 0, len(inputs))
	for j, in := range inputs {
		field := fmt.Sprintf("%s.topics[%d]", moduleField, j)
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return nil, util.NewValidationError(field+".title", "topic title is required")
		}
		topicType := model.TopicType(strings.ToLower(strings.TrimSpace(in.Type)))
		if !topicType.Valid() {
			return nil, util.NewValidationError(field+".type", "type must be one of video, pdf, text, quiz")
		}
		order := j + 1
		if in.Order != nil {
			order = *in.Order
		}
		if order < 0 {
			return nil, util.NewValidationError(field+".order", "order must not be negative")
		}

		topic := PlannedTopic{
			Title:       title,
			Type:        topicType,
			Description: strings.TrimSpace(in.Description),
			Order:       order,
		}

		if topicType == model.TopicQuiz {
			def, err := parseQuizDefinition(field+".content", in.Content)
			if err != nil {
				return nil, err
			}
			if def.Title == "" {
				def.Title = title
			}
			topic.Quiz = def
		} else {
			content, err := model.NewTopicContent(topicType, in.Content)
			if err != nil {
				return nil, util.NewValidationError(field+".content", err.Error())
			}
			topic.Content = content
		}
		topics = append(topics, topic)
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Order < topics[j].Order
	})
	return topics, nil
}

func parseQuizDefinition(field string, raw json.RawMessage) (*model.QuizDefinition, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, util.NewValidationError(field, "quiz topics require a quiz definition")
	}
	var def model.QuizDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, util.NewValidationError(field, "malformed quiz definition")
	}
	if err := def.Normalize(); err != nil {
		var fe *model.FieldError
		if errors.As(err, &fe) {
			return nil, util.NewValidationError(field+"."+fe.Field, fe.Err.Error())
		}
		return nil, util.NewValidationError(field, err.Error())
	}
	return &def, nil
}

// Replace 在调用方的事务内执行，顺序不可调整：
// 先删旧章节引用的测验与小结，再删旧章节；新章节落库后才能创建测验并回填 quizId。
// 返回新章节 ID，按 order 升序。
func (b *CurriculumBuilder) Replace(ctx context.Context, tx *repository.Store, course *model.Course, plan *CurriculumPlan) ([]string, error) {
	oldIDs, err := tx.Modules.IDsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Quizzes.DeleteByModuleIDs(ctx, oldIDs); err != nil {
		return nil, err
	}
	if err := tx.Summaries.DeleteByModuleIDs(ctx, oldIDs); err != nil {
		return nil, err
	}
	if err := tx.Modules.DeleteByIDs(ctx, oldIDs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(plan.Modules))
	for _, pm := range plan.Modules {
		module := &model.Module{
			CourseID:   course.ID,
			Title:      pm.Title,
			Order:      pm.Order,
			Topics:     make(datatypes.JSONSlice[model.Topic], 0, len(pm.Topics)),
			SummaryIDs: datatypes.JSONSlice[string]{},
		}
		for _, pt := range pm.Topics {
			content := pt.Content
			if pt.Type == model.TopicQuiz {
				content = model.QuizContent{}
			}
			module.Topics = append(module.Topics, model.Topic{
				ID:          model.GenerateUUID(),
				Title:       pt.Title,
				Type:        pt.Type,
				Description: pt.Description,
				Order:       pt.Order,
				Content:     content,
			})
		}
		if err := tx.Modules.Create(ctx, module); err != nil {
			return nil, err
		}

		for i, pt := range pm.Topics {
			if pt.Quiz == nil {
				continue
			}
			quiz := &model.Quiz{
				CourseID: course.ID,
				ModuleID: module.ID,
				TopicID:  module.Topics[i].ID,
			}
			quiz.Apply(pt.Quiz)
			if err := tx.Quizzes.Create(ctx, quiz); err != nil {
				return nil, err
			}
			module.Topics[i].Content = model.QuizContent{QuizID: quiz.ID}
		}

		for _, s := range pm.Summaries {
			summary := &model.Summary{
				Title:    s.Title,
				Content:  s.Content,
				CourseID: course.ID,
				ModuleID: module.ID,
			}
			if err := tx.Summaries.Create(ctx, summary); err != nil {
				return nil, err
			}
			module.SummaryIDs = append(module.SummaryIDs, summary.ID)
		}

		if err := tx.Modules.Save(ctx, module); err != nil {
			return nil, err
		}
		ids = append(ids, module.ID)
	}
	return ids, nil
}
