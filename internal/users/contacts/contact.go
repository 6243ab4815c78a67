// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

/*
Package contacts implements the address book domain.

Every contact belongs to exactly one owner; all reads and writes are scoped
by the owner's account ID so one user can never observe another's data.

Search works on a folded shadow column (lowercase, accent-stripped) so
"José" and "jose" hit the same rows.
*/
package contacts

import (
	"time"

	"github.com/mkravets/contactly/pkg/normalize"
)

// # Entity

// Contact is a single address book entry.
type Contact struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"-"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	// SearchName is the folded projection of the name and email fields,
	// maintained on every write.
	SearchName string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Refold recomputes the folded search projection from the current fields.
func (contact *Contact) Refold() {
	contact.SearchName = normalize.Fold(contact.FirstName + " " + contact.LastName + " " + contact.Email)
}
