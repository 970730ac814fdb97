package models

import "time"

// Audit columns shared by every user-authored record.
const (
	FieldCreatedAt = "created_at"
	FieldCreatedBy = "created_by"
	FieldUpdatedAt = "updated_at"
	FieldUpdatedBy = "updated_by"
)

// AuditFieldNames lists the system-managed columns in persistence order.
var AuditFieldNames = []string{FieldCreatedAt, FieldCreatedBy, FieldUpdatedAt, FieldUpdatedBy}

// Audit is embedded by entities that record who created and last changed them.
// Timestamps are managed explicitly through ApplyAudit, not by GORM.
type Audit struct {
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	CreatedByID *uint     `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	UpdatedByID *uint     `gorm:"column:updated_by" json:"updated_by,omitempty"`
}

// AuditFields exposes the embedded audit block.
func (a *Audit) AuditFields() *Audit {
	return a
}

// Audited is implemented by every entity embedding Audit.
type Audited interface {
	AuditFields() *Audit
}

// ApplyAudit stamps the audit columns before a write. Creation columns are
// only set when isNew is true; update columns are refreshed on every call.
func ApplyAudit(entity Audited, actingUserID uint, isNew bool) {
	applyAuditAt(entity, actingUserID, isNew, time.Now().UTC())
}

func applyAuditAt(entity Audited, actingUserID uint, isNew bool, now time.Time) {
	a := entity.AuditFields()
	var actor *uint
	if actingUserID != 0 {
		id := actingUserID
		actor = &id
	}
	if isNew {
		a.CreatedAt = now
		a.CreatedByID = actor
	}
	a.UpdatedAt = now
	a.UpdatedByID = actor
}

// WithAuditFields returns updateFields with the audit columns appended,
// keeping the caller's order and dropping duplicates.
func WithAuditFields(updateFields []string) []string {
	out := make([]string, 0, len(updateFields)+len(AuditFieldNames))
	seen := make(map[string]struct{}, cap(out))
	for _, f := range append(append([]string{}, updateFields...), AuditFieldNames...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// IsAuditField reports whether name is one of the system-managed columns.
func IsAuditField(name string) bool {
	for _, f := range AuditFieldNames {
		if f == name {
			return true
		}
	}
	return false
}
