package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	TenantIDKey ContextKey = "tenant_id"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionSettings   AuditAction = "SETTINGS"
	AuditActionPermission AuditAction = "PERMISSION"
	AuditActionPlan       AuditAction = "PLAN"
	AuditActionBulk       AuditAction = "BULK"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`                       // Feature area, e.g. "permissions"
	RecordID  string             `bson:"record_id" json:"record_id"`                 // ID of the record being modified
	ActorID   string             `bson:"actor_id" json:"actor_id"`                   // User ID who performed the action
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"` // field -> {old, new}
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Plan names a subscription tier. Plan presets are keyed by it.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanBusiness, PlanEnterprise:
		return true
	}
	return false
}

type Organization struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	Plan      Plan               `bson:"plan" json:"plan"`
	OwnerID   string             `bson:"owner_id" json:"owner_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type Log struct {
	Message      string    `bson:"message" json:"message"`
	IpAddress    string    `bson:"ip_address" json:"ip_address"`
	OrgId        string    `bson:"org_id,omitempty" json:"org_id,omitempty"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	AppId        string    `bson:"app_id" json:"app_id"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}

// Event is pushed to websocket subscribers of an organization
type Event struct {
	Type      string         `json:"type"`
	OrgID     string         `json:"org_id"`
	Data      interface{}    `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Extra     map[string]any `json:"extra,omitempty"`
}

const (
	EventPermissionsChanged  = "permissions.changed"
	EventOrganizationPlanSet = "organization.plan_changed"
)
