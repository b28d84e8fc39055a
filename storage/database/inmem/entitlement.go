package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/entitlement"
)

type entitlementRepository struct {
	db *DB
}

var _ entitlement.Repository = (*entitlementRepository)(nil) // interface compliance check

func NewEntitlementRepository(db *DB) *entitlementRepository {
	return &entitlementRepository{db: db}
}

func (repo *entitlementRepository) GetOrCreate(_ context.Context, learnerID, subjectID string) (entitlement.Entitlement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return *repo.getOrCreate(learnerID, subjectID), nil
}

// getOrCreate must be called with the write lock held.
func (repo *entitlementRepository) getOrCreate(learnerID, subjectID string) *entitlement.Entitlement {
	k := key(learnerID, subjectID)
	if ent, ok := repo.db.entitlements[k]; ok {
		return ent
	}
	now := time.Now().UTC()
	ent := &entitlement.Entitlement{
		ID:        uuid.New().String(),
		LearnerID: learnerID,
		SubjectID: subjectID,
		Locked:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	repo.db.entitlements[k] = ent
	return ent
}

func (repo *entitlementRepository) Unlock(_ context.Context, learnerID, subjectID string, meta entitlement.PurchaseMeta) (entitlement.Entitlement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ent, ok := repo.db.entitlements[key(learnerID, subjectID)]
	if !ok {
		return entitlement.Entitlement{}, entitlement.ErrNotFound
	}
	if !ent.Locked {
		return *ent, entitlement.ErrAlreadyUnlocked
	}
	now := time.Now().UTC()
	ent.Locked = false
	ent.PurchasedAt = null.TimeFrom(now)
	ent.TransactionID = null.NewString(meta.TransactionID, meta.TransactionID != "")
	ent.OrderID = null.NewString(meta.OrderID, meta.OrderID != "")
	ent.Amount = null.NewFloat64(meta.Amount, meta.Amount != 0)
	ent.UpdatedAt = now
	return *ent, nil
}

func (repo *entitlementRepository) UnlockAll(_ context.Context, learnerID string, subjectIDs []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, subjectID := range subjectIDs {
		ent := repo.getOrCreate(learnerID, subjectID)
		ent.Locked = false
		if !ent.PurchasedAt.Valid {
			ent.PurchasedAt = null.TimeFrom(now)
		}
		ent.UpdatedAt = now
	}
	return len(subjectIDs), nil
}

func (repo *entitlementRepository) CreateLockedMissing(_ context.Context, learnerID string, subjectIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, subjectID := range subjectIDs {
		repo.getOrCreate(learnerID, subjectID)
	}
	return nil
}

func (repo *entitlementRepository) QueryUnlocked(_ context.Context, learnerID string) ([]entitlement.Entitlement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ents []entitlement.Entitlement
	for _, ent := range repo.db.entitlements {
		if ent.LearnerID == learnerID && !ent.Locked {
			ents = append(ents, *ent)
		}
	}
	return ents, nil
}
