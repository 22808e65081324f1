package domain

// ReconcilePlan describes the row mutations that align the local table
// with a provider's remote state. A plan is computed from a full remote
// snapshot and applied in a single transaction.
type ReconcilePlan struct {
	Create      []*Item // present remotely, absent locally
	Update      []*Item // present on both sides, display content differs (or row was inactive)
	Deactivate  []*Item // active locally, gone remotely
	Unchanged   int     // present on both sides, display content identical
	Reactivated int     // subset of Update that was soft-deleted and came back
}

// Empty reports whether applying the plan would write nothing.
func (p *ReconcilePlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Deactivate) == 0
}

// BuildReconcilePlan diffs the full local row set of one provider against
// the normalized remote snapshot.
//
//   - remote-only items are created,
//   - local-active items missing remotely are deactivated,
//   - items on both sides are updated only when display content differs,
//   - an inactive local item that reappears remotely is reactivated in
//     place (the provider/external-id unique key forbids a second row),
//   - duplicate external ids inside the snapshot keep the first record.
//
// Local rows already inactive and still absent remotely are not touched.
func BuildReconcilePlan(local, remote []*Item) ReconcilePlan {
	var plan ReconcilePlan

	byExternalID := make(map[string]*Item, len(local))
	for _, it := range local {
		byExternalID[it.ExternalID] = it
	}

	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		if r.ExternalID == "" || seen[r.ExternalID] {
			continue
		}
		seen[r.ExternalID] = true

		existing, ok := byExternalID[r.ExternalID]
		if !ok {
			plan.Create = append(plan.Create, r)
			continue
		}

		if existing.Active && existing.DisplayEquals(r) {
			plan.Unchanged++
			continue
		}

		if !existing.Active {
			plan.Reactivated++
		}
		merged := *existing
		merged.MergeFrom(r)
		plan.Update = append(plan.Update, &merged)
	}

	for _, it := range local {
		if it.Active && !seen[it.ExternalID] {
			plan.Deactivate = append(plan.Deactivate, it)
		}
	}

	return plan
}
