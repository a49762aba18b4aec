package hierarchy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jward/lineage/internal/store"
)

// persist merges every changed class and writes its facts, then rewrites
// the member references of changed classes that declare functions.
func (r *run) persist(ctx context.Context) error {
	m := newMerger(r.graph, r.maxDepth, r.logger)
	batch := store.NewFactBatch()

	for _, id := range r.work.changedOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := r.graph.members[id]; !ok {
			continue
		}
		cf := r.classFacts(id, m.merge(id))
		batch.AddClass(cf)
		r.stats.Changed++
		r.stats.ClassMembers += len(cf.Members)
		r.stats.Overrides += len(cf.Overrides)
		r.stats.SummariesUpdated += len(cf.SummaryUpdates)
		if err := r.maybeFlush(batch); err != nil {
			return err
		}
	}

	for _, id := range r.work.changedOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		dm, ok := r.graph.members[id]
		if !ok || len(dm.functions) == 0 {
			continue
		}
		rf, err := r.memberReferences(id, dm, m)
		if err != nil {
			return err
		}
		batch.AddReferences(rf)
		r.stats.ComputedReferences += len(rf.References)
		if err := r.maybeFlush(batch); err != nil {
			return err
		}
	}

	return r.flush(batch)
}

// classFacts turns a merged member set into the rows stored for a class.
func (r *run) classFacts(classID int64, set *MemberSet) store.ClassFacts {
	cf := store.ClassFacts{ClassID: classID}
	records := r.graph.members[classID].records

	set.Each(func(kind string, info *MemberInfo) {
		cf.Members = append(cf.Members, store.ClassMember{
			ClassID:    classID,
			DocBlockID: info.SourceID,
			Alias:      info.Alias,
		})
		if !info.Direct {
			return
		}
		cf.DirectMemberIDs = append(cf.DirectMemberIDs, info.SourceID)
		cf.Overrides = append(cf.Overrides, store.Override{
			DocBlockID:     info.SourceID,
			OverridesID:    store.IDPtr(info.OverriddenID),
			DocumentedInID: store.IDPtr(info.DocumentedAt),
		})
		own := records[info.SourceID]
		if own != nil && own.Summary == "" && info.Summary != "" &&
			info.DocumentedAt != 0 && info.DocumentedAt != info.SourceID {
			cf.SummaryUpdates = append(cf.SummaryUpdates, store.SummaryUpdate{
				DocBlockID: info.SourceID,
				Summary:    info.Summary,
			})
		}
	})
	return cf
}

func (r *run) maybeFlush(batch *store.FactBatch) error {
	if batch.Len() < r.flushEvery {
		return nil
	}
	return r.flush(batch)
}

func (r *run) flush(batch *store.FactBatch) error {
	n := batch.Len()
	if n == 0 {
		return nil
	}
	if err := r.store.CommitFacts(batch); err != nil {
		return fmt.Errorf("persist facts: %w", err)
	}
	r.logger.Debug("facts committed", zap.Int("groups", n))
	batch.Reset()
	return nil
}
