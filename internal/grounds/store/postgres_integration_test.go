//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bidrag/internal/domain"
	"bidrag/internal/grounds/store"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
	"bidrag/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.postgres.DB.ExecContext(context.Background(), "TRUNCATE grounds_generations")
	s.Require().NoError(err)
}

func grounds(name string) domain.GroundsSet {
	return domain.GroundsSet{
		{
			Reference: "person_bidragsmottaker_01018512345",
			Category:  domain.CategoryPersonRecipient,
			Source:    domain.SourceOfficial,
			Payload:   []byte(`{"ident":"01018512345","navn":"` + name + `"}`),
		},
	}
}

func (s *PostgresStoreSuite) TestActivateAndReadBack() {
	ctx := context.Background()
	caseID := id.CaseID(uuid.New())
	at := time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC)

	gen, err := s.store.Activate(ctx, caseID, grounds("Mor"), "saksbehandler-1", at)
	s.Require().NoError(err)
	s.Equal(int64(1), gen.Number)

	active, err := s.store.Active(ctx, caseID)
	s.Require().NoError(err)
	s.Equal(int64(1), active.Number)
	s.Equal("saksbehandler-1", active.ActivatedBy)
	s.Require().Len(active.Grounds, 1)
	s.Equal("person_bidragsmottaker_01018512345", active.Grounds[0].Reference)
	s.True(active.ActivatedAt.Equal(at))
}

func (s *PostgresStoreSuite) TestActiveOnUnknownCase() {
	_, err := s.store.Active(context.Background(), id.CaseID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestGenerationsAreAppendOnly() {
	ctx := context.Background()
	caseID := id.CaseID(uuid.New())

	for i, name := range []string{"Mor", "Mor Oppdatert", "Mor Siste"} {
		gen, err := s.store.Activate(ctx, caseID, grounds(name), "x", time.Now().Add(time.Duration(i)*time.Minute))
		s.Require().NoError(err)
		s.Equal(int64(i+1), gen.Number)
	}

	gens, err := s.store.Generations(ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(gens, 3)
	for i, gen := range gens {
		s.Equal(int64(i+1), gen.Number)
	}
}

// Concurrent activations of the same case must produce a strictly sequential
// generation history; losers get ErrConflict and retry at the caller's
// discretion.
func (s *PostgresStoreSuite) TestConcurrentActivationConflicts() {
	ctx := context.Background()
	caseID := id.CaseID(uuid.New())
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Activate(ctx, caseID, grounds("Mor"), "x", time.Now())
			switch {
			case err == nil:
				successes.Add(1)
			case err == sentinel.ErrConflict:
				conflicts.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(goroutines), successes.Load()+conflicts.Load())
	s.Greater(successes.Load(), int32(0))

	gens, err := s.store.Generations(ctx, caseID)
	s.Require().NoError(err)
	s.Len(gens, int(successes.Load()))
	for i, gen := range gens {
		s.Equal(int64(i+1), gen.Number)
	}
}
