package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolutionFixture struct {
	store   *memStore
	service *TargetResolutionService
	patient *patient.Patient
	item    *billing.FicheNavetteItem
	dep     *billing.ItemDependency
}

func newResolutionFixture(t *testing.T) *resolutionFixture {
	store := newMemStore()

	p, err := patient.NewPatient("Amina", "Bensaid")
	require.NoError(t, err)
	store.putPatient(p)

	prestationID := uuid.New()
	item, err := billing.NewFicheNavetteItem(uuid.New(), p.ID, &prestationID, "Consultation", decimal.NewFromInt(3000))
	require.NoError(t, err)
	store.putItem(item)

	dep, err := billing.NewItemDependency(item.ID, p.ID, uuid.New(), "Injection", decimal.NewFromInt(500))
	require.NoError(t, err)
	store.putDep(dep)

	return &resolutionFixture{
		store:   store,
		service: NewTargetResolutionService(memUnitOfWork{store}),
		patient: p,
		item:    item,
		dep:     dep,
	}
}

func TestTargetResolution_DependencyID(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	resolved, err := f.service.Resolve(ctx, TargetSelector{ItemDependencyID: &f.dep.ID})
	require.NoError(t, err)

	assert.True(t, resolved.Ref.Equals(billing.DependencyRef(f.dep.ID)))
	assert.Equal(t, f.patient.ID, resolved.PatientID)
	require.NotNil(t, resolved.ParentItemID)
	assert.Equal(t, f.item.ID, *resolved.ParentItemID)
}

func TestTargetResolution_FicheItemID(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	t.Run("resolves item directly", func(t *testing.T) {
		resolved, err := f.service.Resolve(ctx, TargetSelector{FicheNavetteItemID: &f.item.ID})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.Equals(billing.FicheItemRef(f.item.ID)))
		assert.Equal(t, f.patient.ID, resolved.PatientID)
	})

	t.Run("real patient id alongside does not switch target", func(t *testing.T) {
		resolved, err := f.service.Resolve(ctx, TargetSelector{
			FicheNavetteItemID: &f.item.ID,
			PatientID:          &f.patient.ID,
		})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.IsFicheItem())
	})

	t.Run("non-patient id switches to matching dependency", func(t *testing.T) {
		// The stray id matches the dependency's discriminator prestation.
		resolved, err := f.service.Resolve(ctx, TargetSelector{
			FicheNavetteItemID: &f.item.ID,
			PatientID:          &f.dep.DependentPrestationID,
		})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.Equals(billing.DependencyRef(f.dep.ID)))
		assert.Equal(t, f.patient.ID, resolved.PatientID, "patient comes from the parent document")
	})

	t.Run("non-patient id with no matching dependency keeps the item", func(t *testing.T) {
		stray := uuid.New()
		resolved, err := f.service.Resolve(ctx, TargetSelector{
			FicheNavetteItemID: &f.item.ID,
			PatientID:          &stray,
		})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.IsFicheItem())
	})
}

func TestTargetResolution_LegacyPrestationID(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	t.Run("matches item by prestation id", func(t *testing.T) {
		resolved, err := f.service.Resolve(ctx, TargetSelector{PatientID: f.item.PrestationID})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.Equals(billing.FicheItemRef(f.item.ID)))
	})

	t.Run("falls back to dependency by dependent prestation id", func(t *testing.T) {
		resolved, err := f.service.Resolve(ctx, TargetSelector{PatientID: &f.dep.DependentPrestationID})
		require.NoError(t, err)
		assert.True(t, resolved.Ref.Equals(billing.DependencyRef(f.dep.ID)))
	})

	t.Run("real patient id alone is ambiguous", func(t *testing.T) {
		_, err := f.service.Resolve(ctx, TargetSelector{PatientID: &f.patient.ID})
		assert.ErrorIs(t, err, billing.ErrAmbiguousTarget)
	})

	t.Run("unknown id finds nothing", func(t *testing.T) {
		stray := uuid.New()
		_, err := f.service.Resolve(ctx, TargetSelector{PatientID: &stray})
		assert.ErrorIs(t, err, billing.ErrTargetNotFound)
	})
}

func TestTargetResolution_Failures(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	t.Run("empty selector", func(t *testing.T) {
		_, err := f.service.Resolve(ctx, TargetSelector{})
		assert.ErrorIs(t, err, billing.ErrAmbiguousTarget)
	})

	t.Run("unknown dependency id", func(t *testing.T) {
		stray := uuid.New()
		_, err := f.service.Resolve(ctx, TargetSelector{ItemDependencyID: &stray})
		assert.ErrorIs(t, err, billing.ErrTargetNotFound)
	})

	t.Run("unknown fiche item id", func(t *testing.T) {
		stray := uuid.New()
		_, err := f.service.Resolve(ctx, TargetSelector{FicheNavetteItemID: &stray})
		assert.ErrorIs(t, err, billing.ErrTargetNotFound)
	})

	t.Run("dependency whose parent item is gone", func(t *testing.T) {
		delete(f.store.items, f.item.ID)
		_, err := f.service.Resolve(ctx, TargetSelector{ItemDependencyID: &f.dep.ID})
		assert.ErrorIs(t, err, billing.ErrOrphanedDependency)
	})
}

func TestTargetResolution_Idempotent(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()
	selector := TargetSelector{ItemDependencyID: &f.dep.ID}

	first, err := f.service.Resolve(ctx, selector)
	require.NoError(t, err)
	second, err := f.service.Resolve(ctx, selector)
	require.NoError(t, err)

	assert.True(t, first.Ref.Equals(second.Ref))
	assert.Equal(t, first.PatientID, second.PatientID)
}
