package store

import (
	"database/sql"
	"fmt"
)

// --- ClassMember operations ---

func (s *Store) queryClassMembers(query string, args ...any) ([]*ClassMember, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []*ClassMember
	for rows.Next() {
		cm := &ClassMember{}
		if err := rows.Scan(&cm.ID, &cm.ClassID, &cm.DocBlockID, &cm.Alias); err != nil {
			return nil, fmt.Errorf("scan class member: %w", err)
		}
		members = append(members, cm)
	}
	return members, rows.Err()
}

const classMemberCols = `id, class_id, docblock_id, member_alias`

// ClassMembersByClass returns the merged member set of a class, in
// insertion order.
func (s *Store) ClassMembersByClass(classID int64) ([]*ClassMember, error) {
	members, err := s.queryClassMembers(
		"SELECT "+classMemberCols+" FROM class_members WHERE class_id = ? ORDER BY id", classID,
	)
	if err != nil {
		return nil, fmt.Errorf("class members by class: %w", err)
	}
	return members, nil
}

// ClassMembersByDocBlock returns every class a member doc block belongs to,
// directly or through inheritance.
func (s *Store) ClassMembersByDocBlock(docBlockID int64) ([]*ClassMember, error) {
	members, err := s.queryClassMembers(
		"SELECT "+classMemberCols+" FROM class_members WHERE docblock_id = ? ORDER BY id", docBlockID,
	)
	if err != nil {
		return nil, fmt.Errorf("class members by docblock: %w", err)
	}
	return members, nil
}

// --- Override operations ---

const overrideCols = `id, docblock_id, overrides_docblock_id, documented_in_docblock_id`

// OverrideByDocBlock returns the override fact for a direct member, or nil
// if none has been computed.
func (s *Store) OverrideByDocBlock(docBlockID int64) (*Override, error) {
	o := &Override{}
	err := s.db.QueryRow(
		"SELECT "+overrideCols+" FROM overrides WHERE docblock_id = ?", docBlockID,
	).Scan(&o.ID, &o.DocBlockID, &o.OverridesID, &o.DocumentedInID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("override by docblock: %w", err)
	}
	return o, nil
}

// OverridesByClass returns the override facts of every direct member of a
// class, in member id order.
func (s *Store) OverridesByClass(classID int64) ([]*Override, error) {
	rows, err := s.db.Query(
		`SELECT o.id, o.docblock_id, o.overrides_docblock_id, o.documented_in_docblock_id
		 FROM overrides o
		 JOIN docblocks d ON d.id = o.docblock_id
		 WHERE d.class_id = ?
		 ORDER BY o.docblock_id`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("overrides by class: %w", err)
	}
	defer rows.Close()
	var overrides []*Override
	for rows.Next() {
		o := &Override{}
		if err := rows.Scan(&o.ID, &o.DocBlockID, &o.OverridesID, &o.DocumentedInID); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// --- ComputedReference operations ---

func (s *Store) queryComputedRefs(query string, args ...any) ([]*ComputedReference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*ComputedReference
	for rows.Next() {
		cr := &ComputedReference{}
		if err := rows.Scan(&cr.ID, &cr.DocBlockID, &cr.TargetID, &cr.Kind, &cr.BranchID); err != nil {
			return nil, fmt.Errorf("scan computed reference: %w", err)
		}
		refs = append(refs, cr)
	}
	return refs, rows.Err()
}

const computedRefCols = `id, docblock_id, target_docblock_id, kind, branch_id`

func (s *Store) ComputedReferencesByDocBlock(docBlockID int64) ([]*ComputedReference, error) {
	refs, err := s.queryComputedRefs(
		"SELECT "+computedRefCols+" FROM computed_references WHERE docblock_id = ? ORDER BY id", docBlockID,
	)
	if err != nil {
		return nil, fmt.Errorf("computed references by docblock: %w", err)
	}
	return refs, nil
}

func (s *Store) ComputedReferencesByTarget(targetID int64) ([]*ComputedReference, error) {
	refs, err := s.queryComputedRefs(
		"SELECT "+computedRefCols+" FROM computed_references WHERE target_docblock_id = ? ORDER BY id", targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("computed references by target: %w", err)
	}
	return refs, nil
}
