package store

import (
	"database/sql"
	"fmt"
)

// CommitFacts writes all buffered facts from a FactBatch into SQLite within
// a single transaction. Every class is replaced wholesale (delete, then
// insert), so committing the same facts twice leaves the same rows.
//
// Write order per class:
//  1. Blank summaries of direct members adopt their inherited summary
//  2. Override rows of the direct members are deleted, then reinserted
//  3. ClassMember rows of the class are deleted, then reinserted
//
// Computed references are replaced after all classes.
func (s *Store) CommitFacts(batch *FactBatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit facts: begin: %w", err)
	}
	defer tx.Rollback()

	for _, cf := range batch.Classes {
		for _, su := range cf.SummaryUpdates {
			if _, err := tx.Exec("UPDATE docblocks SET summary = ? WHERE id = ?", su.Summary, su.DocBlockID); err != nil {
				return fmt.Errorf("commit facts: class %d: summary %d: %w", cf.ClassID, su.DocBlockID, err)
			}
		}

		if err := s.deleteIDsTx(tx, "overrides", "docblock_id", cf.DirectMemberIDs); err != nil {
			return fmt.Errorf("commit facts: class %d: %w", cf.ClassID, err)
		}
		for i := range cf.Overrides {
			if err := insertOverrideTx(tx, &cf.Overrides[i]); err != nil {
				return fmt.Errorf("commit facts: class %d: override %d: %w", cf.ClassID, cf.Overrides[i].DocBlockID, err)
			}
		}

		rows, err := selectIDsTx(tx, "SELECT id FROM class_members WHERE class_id = ?", cf.ClassID)
		if err != nil {
			return fmt.Errorf("commit facts: class %d: %w", cf.ClassID, err)
		}
		if err := s.deleteIDsTx(tx, "class_members", "id", rows); err != nil {
			return fmt.Errorf("commit facts: class %d: %w", cf.ClassID, err)
		}
		for i := range cf.Members {
			if err := insertClassMemberTx(tx, &cf.Members[i]); err != nil {
				return fmt.Errorf("commit facts: class %d: member %q: %w", cf.ClassID, cf.Members[i].Alias, err)
			}
		}
	}

	for _, rf := range batch.References {
		for _, chunk := range chunkIDs(rf.DocBlockIDs, s.deleteBatchSize) {
			args := int64sToArgs(chunk)
			args = append(args, stringsToArgs(rf.Kinds)...)
			if _, err := tx.Exec(
				"DELETE FROM computed_references WHERE docblock_id IN ("+placeholderList(len(chunk))+
					") AND kind IN ("+placeholderList(len(rf.Kinds))+")",
				args...,
			); err != nil {
				return fmt.Errorf("commit facts: delete computed references: %w", err)
			}
		}
		for i := range rf.References {
			if err := insertComputedReferenceTx(tx, &rf.References[i]); err != nil {
				return fmt.Errorf("commit facts: computed reference from %d: %w", rf.References[i].DocBlockID, err)
			}
		}
	}

	return tx.Commit()
}

// deleteIDsTx deletes rows whose column matches any of ids, in chunks of
// the store's delete batch size.
func (s *Store) deleteIDsTx(tx *sql.Tx, table, column string, ids []int64) error {
	for _, chunk := range chunkIDs(ids, s.deleteBatchSize) {
		q := "DELETE FROM " + table + " WHERE " + column + " IN (" + placeholderList(len(chunk)) + ")"
		if _, err := tx.Exec(q, int64sToArgs(chunk)...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func selectIDsTx(tx *sql.Tx, query string, args ...any) ([]int64, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Transaction-scoped insert helpers ---

func insertOverrideTx(tx *sql.Tx, o *Override) error {
	res, err := tx.Exec(
		`INSERT INTO overrides (docblock_id, overrides_docblock_id, documented_in_docblock_id)
		 VALUES (?, ?, ?)`,
		o.DocBlockID, o.OverridesID, o.DocumentedInID,
	)
	if err != nil {
		return err
	}
	o.ID, err = res.LastInsertId()
	return err
}

// insertClassMemberTx ignores duplicates of (docblock_id, member_alias,
// class_id), leaving the first row in place.
func insertClassMemberTx(tx *sql.Tx, cm *ClassMember) error {
	res, err := tx.Exec(
		`INSERT OR IGNORE INTO class_members (class_id, docblock_id, member_alias)
		 VALUES (?, ?, ?)`,
		cm.ClassID, cm.DocBlockID, cm.Alias,
	)
	if err != nil {
		return err
	}
	cm.ID, err = res.LastInsertId()
	return err
}

func insertComputedReferenceTx(tx *sql.Tx, cr *ComputedReference) error {
	res, err := tx.Exec(
		`INSERT INTO computed_references (docblock_id, target_docblock_id, kind, branch_id)
		 VALUES (?, ?, ?, ?)`,
		cr.DocBlockID, cr.TargetID, cr.Kind, cr.BranchID,
	)
	if err != nil {
		return err
	}
	cr.ID, err = res.LastInsertId()
	return err
}
