// Package domain re-exports the split internal/domain/types and
// internal/domain/interfaces packages under one short name, so the rest of
// the module can write domain.XID, domain.GroupRecord, domain.KvStore
// without a second import line.
package domain
