package service

import (
	"context"
	"learnhub_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCRUDKeepsModuleReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course := publishedCourse(t, f)
	moduleID := course.ModuleIDs[1]

	_, err := f.summaries.Create(ctx, instructor, moduleID, &SummaryInput{Title: " "})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = f.summaries.Create(ctx, intruder, moduleID, &SummaryInput{Title: "Nope"})
	assert.ErrorIs(t, err, util.ErrForbidden)

	summary, err := f.summaries.Create(ctx, instructor, moduleID, &SummaryInput{Title: "Wrap-up", Content: "text"})
	require.NoError(t, err)
	assert.Equal(t, course.ID, summary.CourseID)

	module, err := f.store.Modules.FindByID(ctx, moduleID)
	require.NoError(t, err)
	assert.Equal(t, []string{summary.ID}, []string(module.SummaryIDs))

	updated, err := f.summaries.Update(ctx, instructor, summary.ID, &SummaryInput{Title: "Final wrap-up"})
	require.NoError(t, err)
	assert.Equal(t, "Final wrap-up", updated.Title)

	detail, err := f.reader.GetCourse(ctx, nil, course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules[1].Summaries, 1)
	assert.Equal(t, "Final wrap-up", detail.Modules[1].Summaries[0].Title)

	assert.ErrorIs(t, f.summaries.Delete(ctx, intruder, summary.ID), util.ErrForbidden)
	require.NoError(t, f.summaries.Delete(ctx, instructor, summary.ID))

	module, err = f.store.Modules.FindByID(ctx, moduleID)
	require.NoError(t, err)
	assert.Empty(t, module.SummaryIDs)
	assert.ErrorIs(t, f.summaries.Delete(ctx, instructor, summary.ID), util.ErrNotFound)
}
