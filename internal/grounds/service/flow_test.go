package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidrag/internal/domain"
	"bidrag/pkg/testutil"
)

// Walks a case through the full lifecycle: build, validate, activate, then
// refetch and reconcile against the active generation.
func TestCaseLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := testCtx()

	testutil.Given(t, "a case with freshly fetched facts", func(t *testing.T) {
		testutil.When(t, "building the full grounds set", func(t *testing.T) {
			result, err := f.svc.BuildFull(ctx, f.c)
			require.NoError(t, err)

			testutil.Then(t, "the set is internally consistent", func(t *testing.T) {
				require.NoError(t, result.Grounds.CheckIntegrity())
				assert.NotEmpty(t, result.Grounds.ByCategory(domain.CategoryRawIncome))
			})
		})

		testutil.When(t, "validating period coverage", func(t *testing.T) {
			entries, err := f.svc.Validate(ctx, f.c)
			require.NoError(t, err)

			testutil.Then(t, "the income timeline gap is reported", func(t *testing.T) {
				require.NotEmpty(t, entries)
				assert.Equal(t, domain.CategoryIncomePeriod, entries[0].Category)
			})
		})

		testutil.When(t, "activating despite the finding", func(t *testing.T) {
			gen, err := f.svc.Activate(ctx, f.c)
			require.NoError(t, err)

			testutil.Then(t, "the first generation is recorded", func(t *testing.T) {
				assert.Equal(t, int64(1), gen.Number)
				assert.Equal(t, "Z990123", gen.ActivatedBy)
			})
		})

		testutil.When(t, "the source register reports a new amount", func(t *testing.T) {
			facts, err := f.registry.Facts(context.Background(), f.c)
			require.NoError(t, err)
			facts.Income[0].Amount = 450000

			report, err := f.svc.Reconcile(ctx, f.c)
			require.NoError(t, err)

			testutil.Then(t, "reconciliation flags the income group", func(t *testing.T) {
				require.Len(t, report.Entries, 1)
				assert.Equal(t, domain.CategoryRawIncome, report.Entries[0].Category)
				assert.True(t, report.Entries[0].HasChange)
			})
		})
	})
}
