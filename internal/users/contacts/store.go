// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package contacts

import "context"

// Filter narrows a contact listing.
type Filter struct {
	// Search is matched against the folded name projection. Callers pass
	// raw input; the repository folds it before comparison.
	Search string
}

// # Contact Data Access

// ContactRepository defines the data access contract for address book entries.
// Every method is owner-scoped.
type ContactRepository interface {

	/*
		Create persists a brand-new contact.

		Parameters:
		  - context: context.Context
		  - contact: *Contact

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, contact *Contact) error

	/*
		FindByID returns the owner's contact with the given ID.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - *Contact: Hydrated entity
		  - error: apperr.NotFound or database errors
	*/
	FindByID(context context.Context, ownerID, id string) (*Contact, error)

	/*
		List returns a page of the owner's contacts, optionally filtered.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Contact: Page of entities
		  - int: Total matching rows
		  - error: Database retrieval failures
	*/
	List(context context.Context, ownerID string, filter Filter, limit, offset int) ([]*Contact, int, error)

	/*
		Update persists changes to an existing contact.

		Parameters:
		  - context: context.Context
		  - contact: *Contact

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Update(context context.Context, contact *Contact) error

	/*
		Delete removes the owner's contact with the given ID.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - id: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Delete(context context.Context, ownerID, id string) error

	/*
		UpcomingBirthdays returns contacts whose birthday falls within the
		next withinDays days, ordered by the next occurrence.

		Parameters:
		  - context: context.Context
		  - ownerID: string
		  - withinDays: int

		Returns:
		  - []*Contact: Matching entities
		  - error: Database retrieval failures
	*/
	UpcomingBirthdays(context context.Context, ownerID string, withinDays int) ([]*Contact, error)
}
