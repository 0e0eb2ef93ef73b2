package patientfile_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/testutil"
)

const kb = 1024

func TestRecordAndDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d := env.BookableDoctor(t)
	a, err := env.Book(d.ID, "2026-03-17", "09:00", "+966600000001")
	require.NoError(t, err)

	first, err := env.Files.Record(ctx, d.ID, &model.RecordFileRequest{
		PatientID: a.PatientID,
		FileName:  "xray.png",
		ObjectKey: "doctors/" + d.ID.String() + "/xray.png",
		FileSize:  600 * kb,
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Start, first.CreatedAt)

	// Trial allows 1 MB in total.
	_, err = env.Files.Record(ctx, d.ID, &model.RecordFileRequest{
		PatientID: a.PatientID,
		FileName:  "report.pdf",
		ObjectKey: "doctors/" + d.ID.String() + "/report.pdf",
		FileSize:  500 * kb,
	})
	assert.ErrorIs(t, err, model.ErrStorageQuotaExceeded)

	files, err := env.Files.List(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	other := env.BookableDoctor(t)
	assert.ErrorIs(t, env.Files.Delete(ctx, other.ID, first.ID), model.ErrNotFound)

	require.NoError(t, env.Files.Delete(ctx, d.ID, first.ID))
	assert.Equal(t, []string{first.ObjectKey}, env.Blobs.Keys())

	_, err = env.Files.Record(ctx, d.ID, &model.RecordFileRequest{
		PatientID: a.PatientID,
		FileName:  "report.pdf",
		ObjectKey: "doctors/" + d.ID.String() + "/report.pdf",
		FileSize:  500 * kb,
	})
	assert.NoError(t, err, "deleting frees the quota")
}

func TestRecord_Invalid(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	d := env.BookableDoctor(t)

	_, err := env.Files.Record(ctx, d.ID, &model.RecordFileRequest{PatientID: uuid.New(), FileName: "a", ObjectKey: "a", FileSize: 0})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = env.Files.Record(ctx, d.ID, &model.RecordFileRequest{PatientID: uuid.New(), FileName: " ", ObjectKey: "a", FileSize: 1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = env.Files.Record(ctx, d.ID, &model.RecordFileRequest{PatientID: uuid.New(), FileName: "a", ObjectKey: "a", FileSize: 1})
	assert.ErrorIs(t, err, model.ErrNotFound, "unknown patient")
}
