// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package contacts

import (
	"context"
	"time"

	"github.com/mkravets/contactly/pkg/pagination"
	"github.com/mkravets/contactly/pkg/uuid"
)

// # Service

// DefaultBirthdayWindowDays is the lookahead used when the client does not
// specify one.
const DefaultBirthdayWindowDays = 7

// MaxBirthdayWindowDays caps the lookahead to one year.
const MaxBirthdayWindowDays = 366

// Service implements address book use cases. All operations are scoped to
// the calling owner; cross-tenant access is structurally impossible.
type Service struct {
	contactRepository ContactRepository
}

// NewService constructs a new contacts [Service].
func NewService(contactRepo ContactRepository) *Service {
	return &Service{contactRepository: contactRepo}
}

// # Inputs

// CreateInput holds the data required to add a contact.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  *time.Time
	Notes     string
}

// UpdateInput holds partial changes for an existing contact.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	Notes     *string
}

// # Operations

/*
Create adds a contact to the owner's address book.

Parameters:
  - context: context.Context
  - ownerID: string
  - input: CreateInput

Returns:
  - *Contact: Created entity
  - error: Persistence failures
*/
func (service *Service) Create(context context.Context, ownerID string, input CreateInput) (*Contact, error) {

	// Time-sortable ID to prevent PG index fragmentation
	contact := &Contact{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Birthday:  input.Birthday,
		Notes:     input.Notes,
	}
	contact.Refold()

	if err := service.contactRepository.Create(context, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

/*
Get returns a single contact from the owner's address book.

Parameters:
  - context: context.Context
  - ownerID: string
  - contactID: string

Returns:
  - *Contact: Hydrated entity
  - error: NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, ownerID, contactID string) (*Contact, error) {
	return service.contactRepository.FindByID(context, ownerID, contactID)
}

/*
List returns a page of the owner's contacts.

Parameters:
  - context: context.Context
  - ownerID: string
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Contact: Page of entities
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, ownerID string, filter Filter, params pagination.Params) ([]*Contact, pagination.Meta, error) {
	contactList, total, err := service.contactRepository.List(context, ownerID, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return contactList, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Update applies partial changes to an owner's contact.

Description: Reads the current state, applies only the provided fields,
refolds the search projection, and persists.

Parameters:
  - context: context.Context
  - ownerID: string
  - contactID: string
  - input: UpdateInput

Returns:
  - *Contact: Updated entity
  - error: NotFound or persistence failures
*/
func (service *Service) Update(context context.Context, ownerID, contactID string, input UpdateInput) (*Contact, error) {

	contact, err := service.contactRepository.FindByID(context, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	// Apply partial updates
	if input.FirstName != nil {
		contact.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		contact.LastName = *input.LastName
	}
	if input.Email != nil {
		contact.Email = *input.Email
	}
	if input.Phone != nil {
		contact.Phone = *input.Phone
	}
	if input.Birthday != nil {
		contact.Birthday = input.Birthday
	}
	if input.Notes != nil {
		contact.Notes = *input.Notes
	}
	contact.Refold()

	if err := service.contactRepository.Update(context, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

/*
Delete removes a contact from the owner's address book.

Parameters:
  - context: context.Context
  - ownerID: string
  - contactID: string

Returns:
  - error: NotFound or persistence failures
*/
func (service *Service) Delete(context context.Context, ownerID, contactID string) error {
	return service.contactRepository.Delete(context, ownerID, contactID)
}

/*
UpcomingBirthdays returns the owner's contacts with a birthday in the
coming window.

Parameters:
  - context: context.Context
  - ownerID: string
  - withinDays: int (clamped to [1, MaxBirthdayWindowDays]; 0 means default)

Returns:
  - []*Contact: Matching entities
  - error: Retrieval failures
*/
func (service *Service) UpcomingBirthdays(context context.Context, ownerID string, withinDays int) ([]*Contact, error) {
	if withinDays <= 0 {
		withinDays = DefaultBirthdayWindowDays
	}
	if withinDays > MaxBirthdayWindowDays {
		withinDays = MaxBirthdayWindowDays
	}

	return service.contactRepository.UpcomingBirthdays(context, ownerID, withinDays)
}
