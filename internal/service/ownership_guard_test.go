package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mapLookup map[string]*model.Course

func (m mapLookup) FindByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type brokenLookup struct{}

func (brokenLookup) FindByID(context.Context, string) (*model.Course, error) {
	return nil, errors.New("connection reset")
}

func TestOwnershipGuard(t *testing.T) {
	course := &model.Course{InstructorID: instructor.UserID}
	course.ID = "c1"
	guard := NewOwnershipGuard(mapLookup{"c1": course})
	ctx := context.Background()

	got, err := guard.Authorize(ctx, instructor, "c1")
	require.NoError(t, err)
	assert.Same(t, course, got)

	_, err = guard.Authorize(ctx, intruder, "c1")
	assert.ErrorIs(t, err, util.ErrForbidden)

	admin := model.Actor{UserID: "root", Role: model.Admin}
	_, err = guard.Authorize(ctx, admin, "c1")
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = guard.Authorize(ctx, instructor, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = guard.Authorize(ctx, instructor, "")
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, err = NewOwnershipGuard(brokenLookup{}).Authorize(ctx, instructor, "c1")
	assert.Equal(t, util.KindInternal, util.KindOf(err))
}
