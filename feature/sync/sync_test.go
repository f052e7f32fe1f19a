package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lesson-sync/core/database"
	"lesson-sync/core/localstore"
	"lesson-sync/core/reconcile"
	"lesson-sync/core/remotestore"
	"lesson-sync/core/tombstone"
	"lesson-sync/feature/lessons"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const principal = "teacher-1"

type testEnv struct {
	app    *fiber.App
	local  *localstore.Store
	remote *remotestore.SQLRemote
	ledger *tombstone.Ledger
	svc    *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	catalog := lessons.Catalog()

	localDB, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	local := localstore.NewStore(localDB, catalog, nil)
	require.NoError(t, local.Migrate())

	remoteDB, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	remote := remotestore.NewSQLRemote(remoteDB, nil)
	require.NoError(t, remote.Prepare(ctx))
	require.NoError(t, remote.Grant(ctx, principal))

	ledger := tombstone.NewLedger(local)
	driver := reconcile.NewDriver(local, remote, ledger, reconcile.NewThrottle(reconcile.OncePerSession, nil), catalog)
	svc := NewService(driver, ledger, local, zap.NewNop())

	app := fiber.New()
	feature := NewFeature(svc, "")
	require.NoError(t, feature.Load(app))

	return &testEnv{app: app, local: local, remote: remote, ledger: ledger, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Principal", principal)
	resp, err := e.app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &body))
	}
	return resp, body
}

func (e *testEnv) seed(t *testing.T, payloads ...*reconcile.Payload) {
	t.Helper()
	require.NoError(t, e.local.Replace(context.Background(), lessons.Lessons, payloads))
}

func TestHandleSync(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		reconcile.NewPayload("lesson_number", 1, "title", "Scales", "category", "intermediate", "topic", "octaves"),
		reconcile.NewPayload("lesson_number", 2, "title", "Chords"),
	)

	resp, body := env.do(t, "POST", "/sync/lessons")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["state"])
	assert.Equal(t, float64(2), body["created"])

	records, err := env.remote.Session(principal).List(context.Background(), lessons.Lessons)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "intermediate", records[0].Payload.String("difficulty"))
	assert.False(t, records[0].Payload.Has("category"))

	resp, body = env.do(t, "POST", "/sync/lessons")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "throttled", body["state"])

	resp, body = env.do(t, "POST", "/sync/lessons?force=true")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["unchanged"])
}

func TestHandleSync_Errors(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/sync/songs")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest("POST", "/sync/lessons", nil)
	req.Header.Set("X-Principal", "stranger")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandlePreviewAndCursor(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, reconcile.NewPayload("lesson_number", 1, "title", "Scales"))

	resp, body := env.do(t, "GET", "/sync/lessons/preview")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["pending"], 1)

	resp, body = env.do(t, "GET", "/sync/lessons/cursor")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, body["last_success"], "preview does not advance the cursor")
	assert.Equal(t, "idle", body["state"])

	env.do(t, "POST", "/sync/lessons")

	_, body = env.do(t, "GET", "/sync/lessons/cursor")
	assert.NotNil(t, body["last_success"])
}

func TestTombstoneRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		reconcile.NewPayload("lesson_number", 1, "title", "Keep"),
		reconcile.NewPayload("lesson_number", 2, "title", "Drop"),
	)

	resp, _ := env.do(t, "DELETE", "/records/lessons/lesson-2")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/tombstones/lessons/lesson-7")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	list, err := env.svc.ListTombstones(context.Background(), lessons.Lessons)
	require.NoError(t, err)
	require.Len(t, list, 2)

	local, err := env.local.List(context.Background(), lessons.Lessons)
	require.NoError(t, err)
	assert.Len(t, local, 1)

	resp, _ = env.do(t, "DELETE", "/tombstones/lessons?token=guess")
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)

	resp, body := env.do(t, "POST", "/tombstones/lessons/clear-token")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = env.do(t, "DELETE", fmt.Sprintf("/tombstones/lessons?token=%s", token))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["cleared"])
}

func TestHandleListTombstones(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.ledger.Mark(context.Background(), lessons.Lessons, "lesson-1"))

	req := httptest.NewRequest("GET", "/tombstones/lessons", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list []tombstone.Tombstone
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "lesson-1", list[0].Identity)
}

func TestSyncAll(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, reconcile.NewPayload("lesson_number", 1))

	reports, err := env.svc.SyncAll(context.Background(), []string{lessons.Lessons, "songs", lessons.Progressions}, principal, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrUnknownCollection)
	require.Len(t, reports, 2, "unknown collections do not stop the others")
	assert.Equal(t, 1, reports[0].Created)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, fiber.StatusOK},
		{"unknown collection", fmt.Errorf("%w: songs", reconcile.ErrUnknownCollection), fiber.StatusNotFound},
		{"confirmation", tombstone.ErrConfirmationRequired, fiber.StatusPreconditionRequired},
		{"authorization", &reconcile.AuthorizationError{Principal: "x"}, fiber.StatusForbidden},
		{"partial", &reconcile.PartialApplyError{Failures: []reconcile.Failure{{Err: &reconcile.StoreError{Err: errors.New("x")}}}}, fiber.StatusMultiStatus},
		{"store", &reconcile.StoreError{Err: errors.New("x")}, fiber.StatusBadGateway},
		{"other", errors.New("x"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestFeature(t *testing.T) {
	feature := NewFeature(nil, "")
	assert.Equal(t, "sync", feature.Name())
	assert.False(t, feature.IsEnabled())
}
