package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopMedia struct{}

func (nopMedia) Remove(context.Context, string) error { return nil }

func (nopMedia) ProbeDuration(context.Context, *model.Artifact) (float64, error) { return 0, nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	router  *gin.Engine
	courses *service.CourseService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:  "sqlite",
		Path:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogMode: "silent",
	}, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.NewStore(db)
	cache := service.NewCourseCache(nil, 0)
	guard := service.NewOwnershipGuard(store.Courses)
	courses := service.NewCourseService(store, guard, service.NewCurriculumBuilder(), nopMedia{}, cache, service.NopNotifier{}, 1<<20)
	ctl := NewCourseController(courses, service.NewCourseReader(store, cache), nil)

	r := gin.New()
	// X-Test-User 形如 "ins-1:instructor"，测试中代替 JWT 认证
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			parts := strings.SplitN(v, ":", 2)
			c.Set("user", &util.Claims{UserID: parts[0], Role: model.UserRole(parts[1])})
		}
		c.Next()
	})
	r.GET("/api/courses/:id", ctl.GetCourse)
	r.POST("/api/instructor/courses", ctl.CreateCourse)
	r.PUT("/api/instructor/courses/:id/basics", ctl.UpdateCourseBasics)
	r.POST("/api/instructor/courses/:id/publish", ctl.PublishCourse)
	return &harness{router: r, courses: courses}
}

func (h *harness) do(t *testing.T, method, path, user, contentType, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

const (
	ownerHeader    = "ins-1:instructor"
	intruderHeader = "ins-2:instructor"
)

func (h *harness) createCourse(t *testing.T) model.Course {
	t.Helper()
	code, env := h.do(t, http.MethodPost, "/api/instructor/courses", ownerHeader, "application/json",
		`{"title":"Go 101","category":"Programming","level":"Beginner","whatYouLearn":["goroutines","channels"]}`)
	require.Equal(t, http.StatusCreated, code)
	var course model.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	return course
}

func TestCreateCourse(t *testing.T) {
	h := newHarness(t)
	course := h.createCourse(t)
	assert.Equal(t, model.CourseDraft, course.Status)
	assert.Equal(t, []string{"goroutines", "channels"}, []string(course.WhatYouLearn))

	code, env := h.do(t, http.MethodPost, "/api/instructor/courses", ownerHeader, "application/json", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "title", env.Field)

	code, _ = h.do(t, http.MethodPost, "/api/instructor/courses", "", "application/json", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateCourseFromForm(t *testing.T) {
	h := newHarness(t)
	form := url.Values{}
	form.Set("title", "Rust 101")
	form.Set("category", "Programming")
	form.Set("level", "Intermediate")
	form.Set("whatYouLearn", "ownership, borrowing")
	form.Add("requirements", "a laptop")
	form.Add("requirements", "patience")

	code, env := h.do(t, http.MethodPost, "/api/instructor/courses", ownerHeader,
		"application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, code)
	var course model.Course
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, []string{"ownership", "borrowing"}, []string(course.WhatYouLearn))
	assert.Equal(t, []string{"a laptop", "patience"}, []string(course.Requirements))
}

func TestUpdateBasicsByIntruderIsForbidden(t *testing.T) {
	h := newHarness(t)
	course := h.createCourse(t)

	code, _ := h.do(t, http.MethodPut, "/api/instructor/courses/"+course.ID+"/basics", intruderHeader,
		"application/json", `{"title":"Hijacked","category":"x","level":"Beginner"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := h.do(t, http.MethodGet, "/api/courses/"+course.ID, ownerHeader, "", "")
	require.Equal(t, http.StatusOK, code)
	var detail model.CourseDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Go 101", detail.Title)

	code, _ = h.do(t, http.MethodPut, "/api/instructor/courses/missing/basics", ownerHeader,
		"application/json", `{"title":"x","category":"x","level":"Beginner"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPublishFlow(t *testing.T) {
	h := newHarness(t)
	course := h.createCourse(t)
	path := "/api/instructor/courses/" + course.ID + "/publish"

	code, env := h.do(t, http.MethodPost, path, ownerHeader, "application/json", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "stepsCompleted", env.Field)

	_, err := h.courses.AttachMedia(context.Background(), model.Actor{UserID: "ins-1", Role: model.Instructor}, course.ID,
		&service.CourseMediaInput{
			Thumbnail:  &model.Artifact{Path: "c/t.png", URL: "/uploads/c/t.png", MimeType: "image/png", Size: 10},
			PromoVideo: &model.Artifact{Path: "c/p.mp4", URL: "/uploads/c/p.mp4", MimeType: "video/mp4", Size: 20},
		})
	require.NoError(t, err)

	code, _ = h.do(t, http.MethodPost, path, ownerHeader, "application/json", `{"modules":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, path, intruderHeader, "application/json", `{}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = h.do(t, http.MethodPost, path, ownerHeader, "application/json",
		`{"modules":[{"title":"Intro","topics":[{"title":"Hello","type":"text","content":{"textContent":"hi"}}]}]}`)
	require.Equal(t, http.StatusOK, code)
	var published model.Course
	require.NoError(t, json.Unmarshal(env.Data, &published))
	assert.Equal(t, model.CoursePublished, published.Status)

	// 匿名访问已发布课程
	code, env = h.do(t, http.MethodGet, "/api/courses/"+course.ID, "", "", "")
	require.Equal(t, http.StatusOK, code)
	var detail model.CourseDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Len(t, detail.Modules, 1)
	assert.Equal(t, "Intro", detail.Modules[0].Title)

	// 空请求体沿用现有大纲重新发布
	code, _ = h.do(t, http.MethodPost, path, ownerHeader, "application/json", "")
	assert.Equal(t, http.StatusOK, code)
}
