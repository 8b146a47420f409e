// Package audit records recovery operations in a local audit log.
//
// Every create, restore, delete, and import is appended as one JSON object
// per line to <data dir>/audit.jsonl. Entries carry the account and device
// IDs, the storage key ID, and the IDs and counts of affected secrets.
// Secret values and keys are never logged.
//
// # Usage
//
//	log := audit.New(settings.DataDir, cfg.Account.UserID, cfg.Account.DeviceID)
//	log.Log(audit.Entry{Operation: audit.OpCreate, KeyID: id, SecretsCount: 3})
//
// Audit logging is best-effort: write failures are ignored so that an
// operation never fails just because it could not be recorded.
package audit
