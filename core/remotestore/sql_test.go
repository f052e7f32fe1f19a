package remotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"lesson-sync/core/database"
	"lesson-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newSQLiteRemote(t *testing.T) *SQLRemote {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	r := NewSQLRemote(db, nil)
	require.NoError(t, r.Prepare(context.Background()))
	return r
}

func newMockRemote(t *testing.T) (*SQLRemote, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return NewSQLRemote(gormDB, nil), mock
}

func TestSQLRemote_Authorization(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	assert.False(t, r.IsAuthorized(ctx, "teacher-1"))
	assert.False(t, r.IsAuthorized(ctx, ""))

	require.NoError(t, r.Grant(ctx, "teacher-1"))
	require.NoError(t, r.Grant(ctx, "teacher-1"), "granting twice is harmless")
	assert.True(t, r.IsAuthorized(ctx, "teacher-1"))

	require.NoError(t, r.db.Model(&Principal{}).Where("name = ?", "teacher-1").Update("active", false).Error)
	assert.False(t, r.IsAuthorized(ctx, "teacher-1"))

	assert.Error(t, r.Grant(ctx, " "))
}

func TestSQLRemote_UpsertByIdentity(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)
	s := r.Session("teacher-1")

	rec := reconcile.Record{Identity: "lesson-1", Payload: reconcile.NewPayload("custom_id", "lesson-1", "title", "Scales")}
	require.NoError(t, s.Upsert(ctx, "lessons", rec))

	rec.Payload.Set("title", "Scales v2")
	require.NoError(t, s.Upsert(ctx, "lessons", rec))
	require.NoError(t, s.Upsert(ctx, "lessons", rec), "replaying a write is harmless")

	records, err := s.List(ctx, "lessons")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lesson-1", records[0].Identity)
	assert.Equal(t, reconcile.OriginRemote, records[0].Origin)
	assert.Equal(t, "Scales v2", records[0].Payload.String("title"))
	assert.Equal(t, []string{"custom_id", "title"}, records[0].Payload.Keys())
	assert.False(t, records[0].UpdatedAt.IsZero())
}

func TestSQLRemote_SessionsAreScoped(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	require.NoError(t, r.Session("a").Upsert(ctx, "lessons", reconcile.Record{Identity: "lesson-1", Payload: reconcile.NewPayload("title", "A")}))
	require.NoError(t, r.Session("b").Upsert(ctx, "lessons", reconcile.Record{Identity: "lesson-1", Payload: reconcile.NewPayload("title", "B")}))
	require.NoError(t, r.Session("a").Upsert(ctx, "compositions", reconcile.Record{Identity: "composition-1", Payload: reconcile.NewPayload()}))

	records, err := r.Session("a").List(ctx, "lessons")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Payload.String("title"))

	require.NoError(t, r.Session("b").Delete(ctx, "lessons", "lesson-1"))
	records, err = r.Session("b").List(ctx, "lessons")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = r.Session("a").List(ctx, "lessons")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSQLRemote_MySQLUpsertStatement(t *testing.T) {
	r, mock := newMockRemote(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `remote_records` .+ ON DUPLICATE KEY UPDATE .*`payload`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := r.Session("teacher-1").Upsert(context.Background(), "lessons", reconcile.Record{
		Identity: "lesson-1",
		Payload:  reconcile.NewPayload("custom_id", "lesson-1"),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRemote_UpsertFailureIsStoreError(t *testing.T) {
	r, mock := newMockRemote(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `remote_records`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := r.Session("teacher-1").Upsert(context.Background(), "lessons", reconcile.Record{
		Identity: "lesson-2",
		Payload:  reconcile.NewPayload(),
	})

	var storeErr *reconcile.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "lesson-2", storeErr.Identity)
	assert.Equal(t, reconcile.OriginRemote, storeErr.Origin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRemote_ListInvalidPayload(t *testing.T) {
	r, mock := newMockRemote(t)

	rows := sqlmock.NewRows([]string{"id", "owner", "collection", "identity", "payload", "updated_at"}).
		AddRow(1, "teacher-1", "lessons", "lesson-1", "not json", time.Now())
	mock.ExpectQuery("SELECT \\* FROM `remote_records` WHERE owner = .+ AND collection = .+ ORDER BY id").
		WillReturnRows(rows)

	_, err := r.Session("teacher-1").List(context.Background(), "lessons")

	var storeErr *reconcile.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "lesson-1", storeErr.Identity)
}

func TestSQLRemote_AuthorizationLookupFailure(t *testing.T) {
	r, mock := newMockRemote(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `remote_principals`").WillReturnError(errors.New("gone away"))

	assert.False(t, r.IsAuthorized(context.Background(), "teacher-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRemote_PrepareMissingColumn(t *testing.T) {
	r, mock := newMockRemote(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "bigint unsigned", "NO", "PRI", nil, "auto_increment").
		AddRow("owner", "varchar(191)", "NO", "MUL", nil, "").
		AddRow("collection", "varchar(64)", "NO", "", nil, "").
		AddRow("identity", "varchar(191)", "NO", "", nil, "").
		AddRow("payload", "text", "NO", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `remote_records`").WillReturnRows(rows)

	err := r.Prepare(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_at")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRemote_PrepareExistingSchema(t *testing.T) {
	r, mock := newMockRemote(t)

	records := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("owner", "varchar(191)", "NO", "MUL", nil, "").
		AddRow("collection", "varchar(64)", "NO", "", nil, "").
		AddRow("identity", "varchar(191)", "NO", "", nil, "").
		AddRow("payload", "text", "NO", "", nil, "").
		AddRow("updated_at", "datetime(3)", "YES", "", nil, "")
	principals := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("name", "varchar(191)", "NO", "PRI", nil, "").
		AddRow("active", "tinyint(1)", "NO", "", "1", "")
	mock.ExpectQuery("SHOW COLUMNS FROM `remote_records`").WillReturnRows(records)
	mock.ExpectQuery("SHOW COLUMNS FROM `remote_principals`").WillReturnRows(principals)

	assert.NoError(t, r.Prepare(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRemote_MissingColumns(t *testing.T) {
	t.Run("prepared schema", func(t *testing.T) {
		r := newSQLiteRemote(t)
		missing, err := r.MissingColumns(context.Background())
		require.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("missing table", func(t *testing.T) {
		r, mock := newMockRemote(t)
		empty := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
		principals := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("name", "varchar(191)", "NO", "PRI", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `remote_records`").WillReturnRows(empty)
		mock.ExpectQuery("SHOW COLUMNS FROM `remote_principals`").WillReturnRows(principals)

		missing, err := r.MissingColumns(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"owner", "collection", "identity", "payload", "updated_at"}, missing["remote_records"])
		assert.Equal(t, []string{"active"}, missing["remote_principals"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
