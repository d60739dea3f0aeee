package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the persistence layer. memUnitOfWork
// snapshots it before each Execute and restores the snapshot when fn fails,
// mirroring transaction rollback.
type memStore struct {
	items    map[uuid.UUID]billing.FicheNavetteItem
	deps     map[uuid.UUID]billing.ItemDependency
	auths    map[uuid.UUID]billing.RefundAuthorization
	patients map[uuid.UUID]patient.Patient
	entries  []billing.LedgerEntry

	// failLedgerCreate makes the next ledger insert fail, for atomicity tests
	failLedgerCreate error
}

func newMemStore() *memStore {
	return &memStore{
		items:    make(map[uuid.UUID]billing.FicheNavetteItem),
		deps:     make(map[uuid.UUID]billing.ItemDependency),
		auths:    make(map[uuid.UUID]billing.RefundAuthorization),
		patients: make(map[uuid.UUID]patient.Patient),
	}
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.deps {
		c.deps[k] = v
	}
	for k, v := range s.auths {
		c.auths[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	c.entries = append(c.entries, s.entries...)
	return c
}

func (s *memStore) restore(snap *memStore) {
	s.items = snap.items
	s.deps = snap.deps
	s.auths = snap.auths
	s.patients = snap.patients
	s.entries = snap.entries
}

func (s *memStore) putItem(item *billing.FicheNavetteItem) { s.items[item.ID] = *item }
func (s *memStore) putDep(dep *billing.ItemDependency)     { s.deps[dep.ID] = *dep }
func (s *memStore) putAuth(a *billing.RefundAuthorization) { s.auths[a.ID] = *a }
func (s *memStore) putPatient(p *patient.Patient)          { s.patients[p.ID] = *p }

type memRepos struct {
	store *memStore
}

func (r memRepos) FicheItems() billing.FicheItemRepository    { return memItemRepo{r.store} }
func (r memRepos) Dependencies() billing.DependencyRepository { return memDepRepo{r.store} }
func (r memRepos) Ledger() billing.LedgerEntryRepository      { return memLedgerRepo{r.store} }
func (r memRepos) RefundAuthorizations() billing.RefundAuthorizationRepository {
	return memAuthRepo{r.store}
}
func (r memRepos) Patients() patient.Repository { return memPatientRepo{r.store} }

type memUnitOfWork struct {
	store *memStore
}

func (u memUnitOfWork) Execute(_ context.Context, fn func(repos billing.Repositories) error) error {
	snap := u.store.snapshot()
	if err := fn(memRepos{u.store}); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type memItemRepo struct{ store *memStore }

func (r memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.FicheNavetteItem, error) {
	if item, ok := r.store.items[id]; ok {
		return &item, nil
	}
	return nil, nil
}

func (r memItemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.FicheNavetteItem, error) {
	return r.FindByID(ctx, id)
}

func (r memItemRepo) FindByPrestationOrPackage(_ context.Context, prestationID uuid.UUID) (*billing.FicheNavetteItem, error) {
	for _, item := range r.store.items {
		if item.PrestationID != nil && *item.PrestationID == prestationID {
			return &item, nil
		}
		if item.PackageID != nil && *item.PackageID == prestationID {
			return &item, nil
		}
	}
	return nil, nil
}

func (r memItemRepo) FindOutstandingByPatient(_ context.Context, patientID uuid.UUID) ([]billing.FicheNavetteItem, error) {
	var out []billing.FicheNavetteItem
	for _, item := range r.store.items {
		if item.PatientID == patientID && item.RemainingAmount.GreaterThan(decimal.Zero) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r memItemRepo) Save(_ context.Context, item *billing.FicheNavetteItem) error {
	r.store.items[item.ID] = *item
	return nil
}

type memDepRepo struct{ store *memStore }

func (r memDepRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.ItemDependency, error) {
	if dep, ok := r.store.deps[id]; ok {
		return &dep, nil
	}
	return nil, nil
}

func (r memDepRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.ItemDependency, error) {
	return r.FindByID(ctx, id)
}

func (r memDepRepo) FindByParentAndPrestation(_ context.Context, parentItemID, prestationID uuid.UUID) (*billing.ItemDependency, error) {
	for _, dep := range r.store.deps {
		if dep.ParentItemID == parentItemID && dep.DependentPrestationID == prestationID {
			return &dep, nil
		}
	}
	return nil, nil
}

func (r memDepRepo) FindByDependentPrestation(_ context.Context, prestationID uuid.UUID) (*billing.ItemDependency, error) {
	for _, dep := range r.store.deps {
		if dep.DependentPrestationID == prestationID {
			return &dep, nil
		}
	}
	return nil, nil
}

func (r memDepRepo) Save(_ context.Context, dep *billing.ItemDependency) error {
	r.store.deps[dep.ID] = *dep
	return nil
}

type memLedgerRepo struct{ store *memStore }

func (r memLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.LedgerEntry, error) {
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			entry := r.store.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (r memLedgerRepo) FindByTarget(_ context.Context, ref billing.TargetRef) ([]billing.LedgerEntry, error) {
	var out []billing.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.Target != nil && e.Target.Equals(ref) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memLedgerRepo) FindByPatient(_ context.Context, patientID uuid.UUID) ([]billing.LedgerEntry, error) {
	var out []billing.LedgerEntry
	for i := range r.store.entries {
		if r.store.entries[i].PatientID == patientID {
			out = append(out, r.store.entries[i])
		}
	}
	return out, nil
}

func (r memLedgerRepo) FindRefundsOfTransaction(_ context.Context, originalID uuid.UUID) ([]billing.LedgerEntry, error) {
	var out []billing.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.IsRefund() && e.OriginalTransactionID != nil && *e.OriginalTransactionID == originalID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memLedgerRepo) SumNetByTarget(ctx context.Context, ref billing.TargetRef) (decimal.Decimal, error) {
	entries, _ := r.FindByTarget(ctx, ref)
	return billing.SumNetEffect(entries), nil
}

func (r memLedgerRepo) Create(_ context.Context, entry *billing.LedgerEntry) error {
	if err := r.store.failLedgerCreate; err != nil {
		r.store.failLedgerCreate = nil
		return err
	}
	r.store.entries = append(r.store.entries, *entry)
	return nil
}

func (r memLedgerRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			r.store.entries = append(r.store.entries[:i], r.store.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

type memAuthRepo struct{ store *memStore }

func (r memAuthRepo) FindByID(_ context.Context, id uuid.UUID) (*billing.RefundAuthorization, error) {
	if auth, ok := r.store.auths[id]; ok {
		return &auth, nil
	}
	return nil, nil
}

func (r memAuthRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.RefundAuthorization, error) {
	return r.FindByID(ctx, id)
}

func (r memAuthRepo) Create(_ context.Context, auth *billing.RefundAuthorization) error {
	r.store.auths[auth.ID] = *auth
	return nil
}

func (r memAuthRepo) Save(_ context.Context, auth *billing.RefundAuthorization) error {
	r.store.auths[auth.ID] = *auth
	return nil
}

type memPatientRepo struct{ store *memStore }

func (r memPatientRepo) FindByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := r.store.patients[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memPatientRepo) Save(_ context.Context, p *patient.Patient) error {
	r.store.patients[p.ID] = *p
	return nil
}

func (r memPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.store.patients[p.ID] = *p
	return nil
}
