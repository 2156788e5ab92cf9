package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	audienceOwner  = "owner"
	audiencePublic = "public"
)

// CourseCache 缓存课程聚合视图，Redis 未启用时所有方法都是空操作
type CourseCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCourseCache(rdb *redis.Client, ttl time.Duration) *CourseCache {
	return &CourseCache{Redis: rdb, TTL: ttl}
}

func (c *CourseCache) enabled() bool {
	return c != nil && c.Redis != nil && c.TTL > 0
}

func courseCacheKey(courseID, audience string) string {
	return "course:view:" + courseID + ":" + audience
}

func (c *CourseCache) Get(ctx context.Context, courseID, audience string) (*model.CourseDetail, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.Redis.Get(ctx, courseCacheKey(courseID, audience)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Course cache read failed", zap.String("courseId", courseID), zap.Error(err))
		}
		monitoring.CourseCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	var detail model.CourseDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		logger.Log.Warn("Course cache entry is corrupt", zap.String("courseId", courseID), zap.Error(err))
		monitoring.CourseCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	monitoring.CourseCacheTotal.WithLabelValues("hit").Inc()
	return &detail, true
}

func (c *CourseCache) Set(ctx context.Context, courseID, audience string, detail *model.CourseDetail) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(detail)
	if err != nil {
		logger.Log.Warn("Course cache encode failed", zap.String("courseId", courseID), zap.Error(err))
		return
	}
	if err := c.Redis.Set(ctx, courseCacheKey(courseID, audience), data, c.TTL).Err(); err != nil {
		logger.Log.Warn("Course cache write failed", zap.String("courseId", courseID), zap.Error(err))
	}
}

// Invalidate 课程及其章节、测验、选课发生变化后调用
func (c *CourseCache) Invalidate(ctx context.Context, courseID string) {
	if !c.enabled() {
		return
	}
	keys := []string{courseCacheKey(courseID, audienceOwner), courseCacheKey(courseID, audiencePublic)}
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("Course cache invalidation failed", zap.String("courseId", courseID), zap.Error(err))
	}
}
