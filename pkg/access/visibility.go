package access

// Visibility is the task-level tier controlling who may see a task.
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityPrivate    Visibility = "private"
	VisibilityDepartment Visibility = "department"
)

var (
	KeyTasksView   = Key{Module: "tasks", Action: "view"}
	KeyTasksManage = Key{Module: "tasks", Action: "manage"}
)

// Normalize maps an empty or unknown tag to public.
func (v Visibility) Normalize() Visibility {
	switch v {
	case VisibilityPrivate, VisibilityDepartment:
		return v
	default:
		return VisibilityPublic
	}
}

// TaskRef is the slice of a task the visibility rules look at.
type TaskRef struct {
	Visibility Visibility
	Department string
	CreatedBy  string
	AssignedTo string
}

// Viewer is the user asking to see tasks. HasGlobalView is the resolved
// tasks.view or tasks.manage permission of the viewer's role.
type Viewer struct {
	ID            string
	Department    string
	HasGlobalView bool
}

func (t TaskRef) involves(userID string) bool {
	if userID == "" {
		return false
	}
	return t.CreatedBy == userID || t.AssignedTo == userID
}

// IsVisible applies the tiered policy:
//   - private: creator and assignee only, whatever the viewer's rights
//   - department: same department, creator or assignee, plus global viewers
//   - public: viewers holding the global view gate, creator or assignee
func IsVisible(t TaskRef, v Viewer) bool {
	if t.involves(v.ID) {
		return true
	}
	switch t.Visibility.Normalize() {
	case VisibilityPrivate:
		return false
	case VisibilityDepartment:
		if t.Department != "" && v.Department == t.Department {
			return true
		}
		return v.HasGlobalView
	default:
		return v.HasGlobalView
	}
}

// FilterVisible keeps the visible items of tasks in their original order.
func FilterVisible[T any](tasks []T, ref func(T) TaskRef, v Viewer) []T {
	out := make([]T, 0, len(tasks))
	for _, t := range tasks {
		if IsVisible(ref(t), v) {
			out = append(out, t)
		}
	}
	return out
}
