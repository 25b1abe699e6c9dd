package docsystem

import "time"

// Audit actions
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionFolderCreate   = "folder.create"
	ActionFolderRename   = "folder.rename"
	ActionFolderDelete   = "folder.delete"
	ActionMove           = "move"
	ActionVersionCreate  = "version.create"
	ActionVersionRestore = "version.restore"
	ActionShareCreate    = "share.create"
	ActionShareRevoke    = "share.revoke"
	ActionGrantCreate    = "grant.create"
	ActionGrantRevokeAll = "grant.revoke_all"
	ActionBulkDelete     = "bulk.delete"
	ActionBulkMove       = "bulk.move"
	ActionBulkDownload   = "bulk.download"
	ActionRequestCreate  = "request.create"
	ActionRequestUpdate  = "request.update"
)

// AuditLogEntry is an append-only record of a mutating action
type AuditLogEntry struct {
	ID         string         `json:"id" db:"id"`
	DocumentID *string        `json:"document_id,omitempty" db:"document_id"`
	ActorID    *string        `json:"actor_id,omitempty" db:"actor_id"`
	ActorType  *string        `json:"actor_type,omitempty" db:"actor_type"`
	Action     string         `json:"action" db:"action"`
	Metadata   map[string]any `json:"metadata" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
