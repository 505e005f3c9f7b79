package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/auth"
	"github.com/dmitrijs2005/authbridge/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bcryptDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func newMigrationService(t *testing.T, users map[string]*models.User, p *fakeProvider) *MigrationService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmail: users}, s: &fakeSessionsRepo{}}
	return NewMigrationService(db, rm, p, logging.Nop{})
}

func legacyCaller(email string) Caller {
	return Caller{Legacy: &models.Session{Token: "tok", UserID: "legacy-1", Email: email}}
}

func aliceUsers() map[string]*models.User {
	return map[string]*models.User{
		"a@x.com": {ID: "legacy-1", Email: "a@x.com", Password: strPtr("p1")},
	}
}

var strategies = []Strategy{CreateFirst, LookupFirst}

func TestReconcile_AlreadyMigrated(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			p := newFakeProvider()
			s := newMigrationService(t, aliceUsers(), p)

			c := legacyCaller("a@x.com")
			c.Provider = &auth.ProviderSession{UserID: "user_9"}

			_, err := s.Reconcile(context.Background(), c, st)
			assert.ErrorIs(t, err, common.ErrAlreadyMigrated)
			assert.Zero(t, p.finds)
			assert.Empty(t, p.creates)
			assert.Empty(t, p.tickets)
		})
	}
}

func TestReconcile_NotAuthenticated(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			p := newFakeProvider()
			s := newMigrationService(t, aliceUsers(), p)

			_, err := s.Reconcile(context.Background(), Caller{}, st)
			assert.ErrorIs(t, err, common.ErrNotAuthenticated)
			assert.Empty(t, p.creates)
		})
	}
}

func TestReconcile_CreatesIdentityAndIssuesTicket(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			p := newFakeProvider()
			s := newMigrationService(t, aliceUsers(), p)

			token, err := s.Reconcile(context.Background(), legacyCaller("a@x.com"), st)
			require.NoError(t, err)
			assert.Equal(t, "t1", token)

			require.Len(t, p.creates, 1)
			params := p.creates[0]
			assert.Equal(t, []string{"a@x.com"}, params.EmailAddress)
			assert.Equal(t, "legacy-1", params.ExternalID)
			assert.Equal(t, "p1", params.Password)
			assert.True(t, params.SkipPasswordChecks)
			assert.True(t, params.SkipPasswordRequirement)

			id := p.byEmail["a@x.com"]
			require.NotNil(t, id.ExternalID)
			assert.Equal(t, "legacy-1", *id.ExternalID)
			assert.Equal(t, []string{id.ID}, p.tickets)
		})
	}
}

func TestReconcile_ExistingIdentity(t *testing.T) {
	t.Run("create-first falls back to lookup", func(t *testing.T) {
		p := newFakeProvider()
		p.seed("a@x.com", "user_existing")
		s := newMigrationService(t, aliceUsers(), p)

		token, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("a@x.com"))
		require.NoError(t, err)
		assert.Equal(t, "t1", token)
		assert.Len(t, p.creates, 1, "creation attempted once and rejected")
		assert.Equal(t, []string{"user_existing"}, p.tickets)
		assert.Equal(t, 1, p.identities())
	})

	t.Run("lookup-first skips creation", func(t *testing.T) {
		p := newFakeProvider()
		p.seed("a@x.com", "user_existing")
		s := newMigrationService(t, aliceUsers(), p)

		token, err := s.ReconcileLookupFirst(context.Background(), legacyCaller("a@x.com"))
		require.NoError(t, err)
		assert.Equal(t, "t1", token)
		assert.Empty(t, p.creates)
		assert.Equal(t, []string{"user_existing"}, p.tickets)
	})

	t.Run("lookup-first tolerates a creation race", func(t *testing.T) {
		p := newFakeProvider()
		p.seed("a@x.com", "user_batch")
		p.hideOnFind = 1
		s := newMigrationService(t, aliceUsers(), p)

		token, err := s.ReconcileLookupFirst(context.Background(), legacyCaller("a@x.com"))
		require.NoError(t, err)
		assert.Equal(t, "t1", token)
		assert.Equal(t, []string{"user_batch"}, p.tickets)
		assert.Equal(t, 2, p.finds)
	})
}

func TestReconcile_NullPassword(t *testing.T) {
	users := map[string]*models.User{"n@x.com": {ID: "legacy-2", Email: "n@x.com"}}
	p := newFakeProvider()
	s := newMigrationService(t, users, p)

	_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("n@x.com"))
	require.NoError(t, err)

	require.Len(t, p.creates, 1)
	assert.Empty(t, p.creates[0].Password)
	assert.Empty(t, p.creates[0].PasswordDigest)
	assert.True(t, p.creates[0].SkipPasswordRequirement)
}

func TestReconcile_BcryptDigestPassedAsDigest(t *testing.T) {
	users := map[string]*models.User{"b@x.com": {ID: "legacy-3", Email: "b@x.com", Password: strPtr(bcryptDigest)}}
	p := newFakeProvider()
	s := newMigrationService(t, users, p)

	_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("b@x.com"))
	require.NoError(t, err)

	require.Len(t, p.creates, 1)
	assert.Empty(t, p.creates[0].Password)
	assert.Equal(t, bcryptDigest, p.creates[0].PasswordDigest)
	assert.Equal(t, "bcrypt", p.creates[0].PasswordHasher)
}

func TestReconcile_Failures(t *testing.T) {
	t.Run("legacy user missing", func(t *testing.T) {
		p := newFakeProvider()
		s := newMigrationService(t, map[string]*models.User{}, p)

		_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("ghost@x.com"))
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.Empty(t, p.tickets)
	})

	t.Run("create error is fatal", func(t *testing.T) {
		p := newFakeProvider()
		p.createErr = errBoom
		s := newMigrationService(t, aliceUsers(), p)

		_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("a@x.com"))
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, p.tickets)
	})

	t.Run("lookup error is fatal", func(t *testing.T) {
		p := newFakeProvider()
		p.findErr = errBoom
		s := newMigrationService(t, aliceUsers(), p)

		_, err := s.ReconcileLookupFirst(context.Background(), legacyCaller("a@x.com"))
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("taken but not found on re-query", func(t *testing.T) {
		p := newFakeProvider()
		p.seed("a@x.com", "user_ghost")
		p.hideOnFind = 1
		s := newMigrationService(t, aliceUsers(), p)

		_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("a@x.com"))
		assert.ErrorIs(t, err, common.ErrUserNotCreated)
	})

	t.Run("ticket error", func(t *testing.T) {
		p := newFakeProvider()
		p.tokenErr = errBoom
		s := newMigrationService(t, aliceUsers(), p)

		_, err := s.ReconcileCreateFirst(context.Background(), legacyCaller("a@x.com"))
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("empty ticket", func(t *testing.T) {
		p := newFakeProvider()
		p.noToken = true
		s := newMigrationService(t, aliceUsers(), p)

		_, err := s.ReconcileLookupFirst(context.Background(), legacyCaller("a@x.com"))
		assert.ErrorIs(t, err, common.ErrTicketNotIssued)
	})
}

func TestReconcile_ConcurrentCallsCreateOneIdentity(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.String(), func(t *testing.T) {
			p := newFakeProvider()
			s := newMigrationService(t, aliceUsers(), p)

			const callers = 8
			var wg sync.WaitGroup
			errs := make([]error, callers)
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = s.Reconcile(context.Background(), legacyCaller("a@x.com"), st)
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, p.identities())
		})
	}
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "create-first", CreateFirst.String())
	assert.Equal(t, "lookup-first", LookupFirst.String())
}
