package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// DanglingTopic quiz 主题与测验之间的双向引用不一致
type DanglingTopic struct {
	CourseID string `json:"courseId" yaml:"courseId"`
	ModuleID string `json:"moduleId" yaml:"moduleId"`
	TopicID  string `json:"topicId" yaml:"topicId"`
	QuizID   string `json:"quizId" yaml:"quizId"`
	Reason   string `json:"reason" yaml:"reason"`
}

// IntegrityReport 一次全库扫描的结果
type IntegrityReport struct {
	OrphanQuizIDs    []string        `json:"orphanQuizIds" yaml:"orphanQuizIds"`
	OrphanSummaryIDs []string        `json:"orphanSummaryIds" yaml:"orphanSummaryIds"`
	DanglingTopics   []DanglingTopic `json:"danglingTopics" yaml:"danglingTopics"`
	Purged           bool            `json:"purged" yaml:"purged"`
	ScannedAt        time.Time       `json:"scannedAt" yaml:"scannedAt"`
}

func (r *IntegrityReport) Clean() bool {
	return len(r.OrphanQuizIDs) == 0 && len(r.OrphanSummaryIDs) == 0 && len(r.DanglingTopics) == 0
}

// IntegrityService 查找 module_id 无法解析的测验和小结，以及引用断裂的 quiz 主题
type IntegrityService struct {
	Store *repository.Store
}

func NewIntegrityService(store *repository.Store) *IntegrityService {
	return &IntegrityService{Store: store}
}

func (s *IntegrityService) Scan(ctx context.Context) (*IntegrityReport, error) {
	return s.scan(ctx, s.Store)
}

func (s *IntegrityService) scan(ctx context.Context, store *repository.Store) (*IntegrityReport, error) {
	report := &IntegrityReport{
		OrphanQuizIDs:    []string{},
		OrphanSummaryIDs: []string{},
		DanglingTopics:   []DanglingTopic{},
		ScannedAt:        time.Now(),
	}

	var err error
	if report.OrphanQuizIDs, err = store.Quizzes.FindOrphanIDs(ctx); err != nil {
		return nil, translateError(err, "quiz")
	}
	if report.OrphanSummaryIDs, err = store.Summaries.FindOrphanIDs(ctx); err != nil {
		return nil, translateError(err, "summary")
	}

	if report.OrphanQuizIDs == nil {
		report.OrphanQuizIDs = []string{}
	}
	if report.OrphanSummaryIDs == nil {
		report.OrphanSummaryIDs = []string{}
	}

	modules, err := store.Modules.FindAll(ctx)
	if err != nil {
		return nil, translateError(err, "module")
	}
	var quizIDs []string
	for i := range modules {
		quizIDs = append(quizIDs, modules[i].QuizIDs()...)
	}
	quizzes, err := store.Quizzes.FindByIDs(ctx, quizIDs)
	if err != nil {
		return nil, translateError(err, "quiz")
	}

	for _, m := range modules {
		for _, t := range m.Topics {
			if t.Type != model.TopicQuiz {
				continue
			}
			ref := DanglingTopic{CourseID: m.CourseID, ModuleID: m.ID, TopicID: t.ID, QuizID: t.QuizID()}
			quiz, ok := quizzes[ref.QuizID]
			switch {
			case ref.QuizID == "":
				ref.Reason = "quiz topic has no quizId"
			case !ok:
				ref.Reason = "quizId does not resolve"
			case quiz.TopicID != t.ID || quiz.ModuleID != m.ID:
				ref.Reason = "quiz does not point back to this topic"
			default:
				continue
			}
			report.DanglingTopics = append(report.DanglingTopics, ref)
		}
	}

	monitoring.OrphanDocuments.WithLabelValues("quizzes").Set(float64(len(report.OrphanQuizIDs)))
	monitoring.OrphanDocuments.WithLabelValues("summaries").Set(float64(len(report.OrphanSummaryIDs)))
	return report, nil
}

// Purge 在事务内重新扫描并删除孤立的测验与小结；断裂的主题只报告，不自动修改
func (s *IntegrityService) Purge(ctx context.Context) (*IntegrityReport, error) {
	var report *IntegrityReport
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if report, err = s.scan(ctx, tx); err != nil {
			return err
		}
		if err := tx.Quizzes.DeleteByIDs(ctx, report.OrphanQuizIDs); err != nil {
			return err
		}
		return tx.Summaries.DeleteByIDs(ctx, report.OrphanSummaryIDs)
	})
	if err != nil {
		return nil, translateError(err, "integrity")
	}
	report.Purged = true
	return report, nil
}

// RunSweep 定时任务入口
func (s *IntegrityService) RunSweep(ctx context.Context, purge bool) {
	var (
		report *IntegrityReport
		err    error
	)
	if purge {
		report, err = s.Purge(ctx)
	} else {
		report, err = s.Scan(ctx)
	}
	if err != nil {
		logger.Log.Error("Integrity sweep failed", zap.Error(err))
		return
	}
	if report.Clean() {
		logger.Log.Debug("Integrity sweep found no orphans")
		return
	}
	logger.Log.Warn("Integrity sweep found inconsistencies",
		zap.Int("orphanQuizzes", len(report.OrphanQuizIDs)),
		zap.Int("orphanSummaries", len(report.OrphanSummaryIDs)),
		zap.Int("danglingTopics", len(report.DanglingTopics)),
		zap.Bool("purged", report.Purged),
	)
}
