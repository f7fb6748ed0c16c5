package revision

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"go_hostcfg/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "revisions.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.ConfigRevision{}))
	return NewService(gdb, nil)
}

func TestService_LatestEmpty(t *testing.T) {
	svc := newTestService(t)
	rev, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rev)
}

func TestService_RecordAndLatest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, map[string]string{"Port": "8989"}, 1, "admin"))
	require.NoError(t, svc.Record(ctx, map[string]string{"Port": "7878"}, 2, "ops"))

	rev, err := svc.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, "7878", rev.Fields["Port"])
	assert.Equal(t, 2, rev.UserCount)
	assert.Equal(t, "ops", rev.Actor)
	assert.False(t, rev.CreatedAt.IsZero())
}

func TestService_ListPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, map[string]string{"Port": fmt.Sprint(8000 + i)}, 1, "admin"))
	}

	revs, total, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, revs, 2)
	assert.Equal(t, "8004", revs[0].Fields["Port"])
	assert.Greater(t, revs[0].ID, revs[1].ID)

	revs, _, err = svc.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "8000", revs[0].Fields["Port"])

	revs, _, err = svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, revs, 5)
}
