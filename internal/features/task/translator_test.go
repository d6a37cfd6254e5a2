package task

import (
	"testing"

	"go-bizsuite/pkg/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestVisibilityFilter(t *testing.T) {
	tests := []struct {
		name   string
		viewer access.Viewer
		want   bson.M
		ok     bool
	}{
		{
			name:   "global viewer",
			viewer: access.Viewer{ID: "u1", HasGlobalView: true},
			want: bson.M{"$or": bson.A{
				bson.M{"created_by": "u1"},
				bson.M{"assigned_to": "u1"},
				bson.M{"visibility": bson.M{"$ne": access.VisibilityPrivate}},
			}},
			ok: true,
		},
		{
			name:   "department member",
			viewer: access.Viewer{ID: "u1", Department: "sales"},
			want: bson.M{"$or": bson.A{
				bson.M{"created_by": "u1"},
				bson.M{"assigned_to": "u1"},
				bson.M{"visibility": access.VisibilityDepartment, "department": "sales"},
			}},
			ok: true,
		},
		{
			name:   "anonymous without rights",
			viewer: access.Viewer{},
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VisibilityFilter(tt.viewer)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFilterScopesToOrganization(t *testing.T) {
	vis, _ := VisibilityFilter(access.Viewer{ID: "u1"})
	f := listFilter("o1", ListFilter{Status: StatusDone}, vis)

	assert.Equal(t, "o1", f["org_id"])
	assert.Equal(t, StatusDone, f["status"])
	assert.Contains(t, f, "$or")
}
