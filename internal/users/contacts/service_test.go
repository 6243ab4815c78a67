// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package contacts_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/contactly/internal/platform/apperr"
	"github.com/mkravets/contactly/internal/users/contacts"
	"github.com/mkravets/contactly/pkg/normalize"
	"github.com/mkravets/contactly/pkg/pagination"
)

// # Test Doubles

// fakeContactRepository mimics owner scoping and folded search in memory.
type fakeContactRepository struct {
	mu   sync.Mutex
	byID map[string]*contacts.Contact
}

func newFakeContactRepository() *fakeContactRepository {
	return &fakeContactRepository{byID: make(map[string]*contacts.Contact)}
}

func (repo *fakeContactRepository) Create(_ context.Context, contact *contacts.Contact) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *contact
	repo.byID[contact.ID] = &clone
	return nil
}

func (repo *fakeContactRepository) FindByID(_ context.Context, ownerID, id string) (*contacts.Contact, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if contact, ok := repo.byID[id]; ok && contact.OwnerID == ownerID {
		clone := *contact
		return &clone, nil
	}
	return nil, apperr.NotFound("Contact")
}

func (repo *fakeContactRepository) List(_ context.Context, ownerID string, filter contacts.Filter, limit, offset int) ([]*contacts.Contact, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var matched []*contacts.Contact
	folded := normalize.Fold(filter.Search)
	for _, contact := range repo.byID {
		if contact.OwnerID != ownerID {
			continue
		}
		if folded != "" && !strings.Contains(contact.SearchName, folded) {
			continue
		}
		clone := *contact
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastName < matched[j].LastName
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (repo *fakeContactRepository) Update(_ context.Context, contact *contacts.Contact) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	existing, ok := repo.byID[contact.ID]
	if !ok || existing.OwnerID != contact.OwnerID {
		return apperr.NotFound("Contact")
	}
	clone := *contact
	repo.byID[contact.ID] = &clone
	return nil
}

func (repo *fakeContactRepository) Delete(_ context.Context, ownerID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if contact, ok := repo.byID[id]; ok && contact.OwnerID == ownerID {
		delete(repo.byID, id)
		return nil
	}
	return apperr.NotFound("Contact")
}

func (repo *fakeContactRepository) UpcomingBirthdays(_ context.Context, ownerID string, withinDays int) ([]*contacts.Contact, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	now := time.Now()
	cutoff := now.AddDate(0, 0, withinDays)

	var matched []*contacts.Contact
	for _, contact := range repo.byID {
		if contact.OwnerID != ownerID || contact.Birthday == nil {
			continue
		}
		next := time.Date(now.Year(), contact.Birthday.Month(), contact.Birthday.Day(), 0, 0, 0, 0, time.UTC)
		if next.Before(now.Truncate(24 * time.Hour)) {
			next = next.AddDate(1, 0, 0)
		}
		if !next.After(cutoff) {
			clone := *contact
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

// # Fixture

func newContactsFixture() (*contacts.Service, *fakeContactRepository) {
	repo := newFakeContactRepository()
	return contacts.NewService(repo), repo
}

func mustCreate(t *testing.T, service *contacts.Service, ownerID string, input contacts.CreateInput) *contacts.Contact {
	t.Helper()
	contact, err := service.Create(context.Background(), ownerID, input)
	require.NoError(t, err)
	return contact
}

// # Tests

/*
TestService_CreateAndGet verifies creation, folding, and retrieval.
*/
func TestService_CreateAndGet(t *testing.T) {
	service, _ := newContactsFixture()
	ctx := context.Background()

	created := mustCreate(t, service, "owner-1", contacts.CreateInput{
		FirstName: "José",
		LastName:  "García",
		Email:     "jose@example.com",
	})

	// 1. The folded projection strips accents and lowercases
	assert.Equal(t, "jose garcia jose@example.com", created.SearchName)

	// 2. The owner can read it back
	fetched, err := service.Get(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

/*
TestService_OwnerScoping verifies that one owner can never observe or
mutate another owner's entries.
*/
func TestService_OwnerScoping(t *testing.T) {
	service, _ := newContactsFixture()
	ctx := context.Background()

	created := mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "Ana"})

	// 1. Reads are scoped
	_, err := service.Get(ctx, "owner-2", created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// 2. Deletes are scoped
	err = service.Delete(ctx, "owner-2", created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// 3. Updates are scoped
	name := "Eve"
	_, err = service.Update(ctx, "owner-2", created.ID, contacts.UpdateInput{FirstName: &name})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// 4. The listing of the other owner is empty
	list, meta, err := service.List(ctx, "owner-2", contacts.Filter{}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, meta.Total)
}

/*
TestService_List_FoldedSearch verifies accent-insensitive matching.
*/
func TestService_List_FoldedSearch(t *testing.T) {
	service, _ := newContactsFixture()
	ctx := context.Background()

	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "José", LastName: "García"})
	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "Ana", LastName: "Błonska"})
	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "Bob", LastName: "Smith"})

	// 1. Unaccented input finds the accented entry
	list, meta, err := service.List(ctx, "owner-1", contacts.Filter{Search: "jose"}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "José", list[0].FirstName)
	assert.Equal(t, 1, meta.Total)

	// 2. Accented input works the same way
	list, _, err = service.List(ctx, "owner-1", contacts.Filter{Search: "GARCÍA"}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)

	// 3. No filter returns everything
	_, meta, err = service.List(ctx, "owner-1", contacts.Filter{}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, meta.Total)
}

/*
TestService_Update verifies partial updates and projection maintenance.
*/
func TestService_Update(t *testing.T) {
	service, _ := newContactsFixture()
	ctx := context.Background()

	created := mustCreate(t, service, "owner-1", contacts.CreateInput{
		FirstName: "Ana",
		LastName:  "Kowalska",
		Phone:     "+48 600 100 200",
	})

	lastName := "Nowak"
	updated, err := service.Update(ctx, "owner-1", created.ID, contacts.UpdateInput{LastName: &lastName})
	require.NoError(t, err)

	// 1. Only the provided field changed
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Nowak", updated.LastName)
	assert.Equal(t, "+48 600 100 200", updated.Phone)

	// 2. The search projection followed the rename
	assert.Contains(t, updated.SearchName, "nowak")
	assert.NotContains(t, updated.SearchName, "kowalska")
}

/*
TestService_UpcomingBirthdays verifies window defaulting and clamping.
*/
func TestService_UpcomingBirthdays(t *testing.T) {
	service, _ := newContactsFixture()
	ctx := context.Background()

	soon := time.Now().AddDate(-30, 0, 3)
	far := time.Now().AddDate(-25, 0, 90)

	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "Soon", Birthday: &soon})
	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "Far", Birthday: &far})
	mustCreate(t, service, "owner-1", contacts.CreateInput{FirstName: "None"})

	// 1. The default window catches only the nearby birthday
	list, err := service.UpcomingBirthdays(ctx, "owner-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Soon", list[0].FirstName)

	// 2. A wide window catches both dated entries
	list, err = service.UpcomingBirthdays(ctx, "owner-1", 365)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
