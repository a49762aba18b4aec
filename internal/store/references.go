package store

import "fmt"

// --- RawReference operations ---

func (s *Store) InsertRawReference(ref *RawReference) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO raw_references (docblock_id, branch_id, kind, name, extends_docblock_id)
		 VALUES (?, ?, ?, ?, ?)`,
		ref.DocBlockID, ref.BranchID, ref.Kind, ref.Name, ref.ExtendsID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert raw reference: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	ref.ID = id
	return id, nil
}

const rawRefCols = `id, docblock_id, branch_id, kind, name, extends_docblock_id`

func (s *Store) queryRawReferences(query string, args ...any) ([]*RawReference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*RawReference
	for rows.Next() {
		r := &RawReference{}
		if err := rows.Scan(&r.ID, &r.DocBlockID, &r.BranchID, &r.Kind, &r.Name, &r.ExtendsID); err != nil {
			return nil, fmt.Errorf("scan raw reference: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// RawReferencesByDocBlock returns the references owned by a doc block with
// the given kind, in id (declaration) order.
func (s *Store) RawReferencesByDocBlock(docBlockID int64, kind string) ([]*RawReference, error) {
	refs, err := s.queryRawReferences(
		"SELECT "+rawRefCols+" FROM raw_references WHERE docblock_id = ? AND kind = ? ORDER BY id",
		docBlockID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("raw references by docblock: %w", err)
	}
	return refs, nil
}

// UpdateReferenceExtends records (or clears, when target is nil) the
// resolved class-like target of a raw reference.
func (s *Store) UpdateReferenceExtends(refID int64, target *int64) error {
	_, err := s.db.Exec(
		"UPDATE raw_references SET extends_docblock_id = ? WHERE id = ?",
		target, refID,
	)
	if err != nil {
		return fmt.Errorf("update reference extends: %w", err)
	}
	return nil
}

// DependentClassIDs returns class-like doc blocks in branchIDs that extend,
// implement, or use the class identified by classID/name. A dependent
// matches either through its resolved target or, when its reference has
// not been resolved to classID yet, through the textual name with or
// without a leading namespace separator.
func (s *Store) DependentClassIDs(classID int64, name string, branchIDs []int64) ([]int64, error) {
	if len(branchIDs) == 0 {
		return nil, nil
	}
	args := stringsToArgs([]string{RefTrait, RefClass, RefInterface})
	args = append(args, classID, name, `\`+name)
	args = append(args, stringsToArgs(ClassLikeKinds)...)
	args = append(args, int64sToArgs(branchIDs)...)
	args = append(args, classID)
	ids, err := s.queryIDs(
		`SELECT DISTINCT r.docblock_id
		 FROM raw_references r
		 JOIN docblocks d ON d.id = r.docblock_id
		 WHERE r.kind IN (?, ?, ?)
		   AND (r.extends_docblock_id = ? OR r.name IN (?, ?))
		   AND d.kind IN (`+placeholderList(len(ClassLikeKinds))+`)
		   AND d.branch_id IN (`+placeholderList(len(branchIDs))+`)
		   AND r.docblock_id != ?
		 ORDER BY r.docblock_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("dependent class ids: %w", err)
	}
	return ids, nil
}

// --- TraitModifier operations ---

func (s *Store) InsertTraitModifier(m *TraitModifier) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO trait_modifiers (class_id, kind, name, alias) VALUES (?, ?, ?, ?)",
		m.ClassID, m.Kind, m.Name, m.Alias,
	)
	if err != nil {
		return 0, fmt.Errorf("insert trait modifier: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	return id, nil
}

// TraitModifiers returns the modifiers of one kind declared by a class, in
// declaration order.
func (s *Store) TraitModifiers(classID int64, kind string) ([]*TraitModifier, error) {
	rows, err := s.db.Query(
		"SELECT id, class_id, kind, name, alias FROM trait_modifiers WHERE class_id = ? AND kind = ? ORDER BY id",
		classID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("trait modifiers: %w", err)
	}
	defer rows.Close()
	var mods []*TraitModifier
	for rows.Next() {
		m := &TraitModifier{}
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Kind, &m.Name, &m.Alias); err != nil {
			return nil, fmt.Errorf("scan trait modifier: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
