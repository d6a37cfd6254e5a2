package audit

import (
	"context"
	"testing"
	"time"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRepo struct {
	created       []common_models.AuditLog
	limit, offset int64
}

func (f *fakeRepo) Create(_ context.Context, log common_models.AuditLog) error {
	f.created = append(f.created, log)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ map[string]interface{}, limit, offset int64) ([]common_models.AuditLog, error) {
	f.limit, f.offset = limit, offset
	return f.created, nil
}

func TestLogChangeActor(t *testing.T) {
	repo := &fakeRepo{}
	svc := &AuditServiceImpl{Repo: repo, now: func() time.Time { return time.Unix(100, 0) }}

	require.NoError(t, svc.LogChange(context.Background(), common_models.AuditActionPlan, "organization", "o1", nil))

	ctx := common_models.WithSubject(context.Background(), &utils.UserClaims{UserID: "u7", OrgID: "o1"})
	changes := map[string]common_models.Change{"enabled": {Old: true, New: false}}
	require.NoError(t, svc.LogChange(ctx, common_models.AuditActionPermission, "permissions", "p1", changes))

	require.Len(t, repo.created, 2)
	assert.Equal(t, "system", repo.created[0].ActorID)
	assert.Equal(t, "u7", repo.created[1].ActorID)
	assert.Equal(t, changes, repo.created[1].Changes)
	assert.Equal(t, time.Unix(100, 0), repo.created[1].Timestamp)
}

func TestListLogsPaging(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int64
		wantLimit   int64
		wantOffset  int64
	}{
		{"defaults", 0, 0, DefaultPageSize, 0},
		{"third page", 3, 10, 10, 20},
		{"clamped", 1, 5000, MaxPageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := NewAuditService(repo)
			_, err := svc.ListLogs(context.Background(), nil, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, repo.limit)
			assert.Equal(t, tt.wantOffset, repo.offset)
		})
	}
}

func TestBuildListQueryScopesTenant(t *testing.T) {
	org := primitive.NewObjectID()
	ctx := context.WithValue(context.Background(), common_models.TenantIDKey, org.Hex())

	q := buildListQuery(ctx, map[string]interface{}{"module": "permissions", "action": "", "record_id": nil})

	assert.Equal(t, org, q["tenant_id"])
	assert.Equal(t, "permissions", q["module"])
	assert.NotContains(t, q, "action")
	assert.NotContains(t, q, "record_id")

	assert.NotContains(t, buildListQuery(context.Background(), nil), "tenant_id")
}
