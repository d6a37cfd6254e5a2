package task

import (
	"go-bizsuite/pkg/access"

	"go.mongodb.org/mongo-driver/bson"
)

// VisibilityFilter narrows a task query to what the viewer may see. It is a
// prefilter for the store; access.IsVisible stays the authoritative check.
// ok is false when the viewer can see nothing at all.
func VisibilityFilter(v access.Viewer) (filter bson.M, ok bool) {
	var clauses bson.A
	if v.ID != "" {
		clauses = append(clauses,
			bson.M{"created_by": v.ID},
			bson.M{"assigned_to": v.ID},
		)
	}
	if v.HasGlobalView {
		// missing and unknown tags count as public
		clauses = append(clauses, bson.M{"visibility": bson.M{"$ne": access.VisibilityPrivate}})
	} else if v.Department != "" {
		clauses = append(clauses, bson.M{"visibility": access.VisibilityDepartment, "department": v.Department})
	}

	if len(clauses) == 0 {
		return nil, false
	}
	return bson.M{"$or": clauses}, true
}

func listFilter(orgID string, f ListFilter, visibility bson.M) bson.M {
	filter := bson.M{"org_id": orgID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AssignedTo != "" {
		filter["assigned_to"] = f.AssignedTo
	}
	if len(visibility) > 0 {
		for k, v := range visibility {
			filter[k] = v
		}
	}
	return filter
}
