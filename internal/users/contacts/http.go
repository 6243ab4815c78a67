// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package contacts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkravets/contactly/internal/platform/middleware"
	requestutil "github.com/mkravets/contactly/internal/platform/request"
	"github.com/mkravets/contactly/internal/platform/respond"
	"github.com/mkravets/contactly/internal/platform/validate"
	"github.com/mkravets/contactly/pkg/pagination"
)

// # Field Identifiers

const (
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldEmail     = "email"
	fieldPhone     = "phone"
	fieldBirthday  = "birthday"
	fieldNotes     = "notes"
	fieldContactID = "contactID"
)

const maxNotesLength = 2000

// # Definitions & Constructors

// Handler implements the address book HTTP endpoints.
type Handler struct {
	contactService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{contactService: service}
}

// Routes returns a [chi.Router] with the address book routes. Every route
// requires an authenticated caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/birthdays", handler.upcomingBirthdays)
	router.Get("/{contactID}", handler.get)
	router.Put("/{contactID}", handler.update)
	router.Delete("/{contactID}", handler.remove)

	return router
}

// # Request Payloads

type contactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Notes     string `json:"notes"`
}

// validateContactFields runs the shared field rules for create and update.
func validateContactFields(v *validate.Validator, input contactRequest) {
	v.Required(fieldFirstName, input.FirstName).
		MaxLen(fieldFirstName, input.FirstName, 120).
		MaxLen(fieldLastName, input.LastName, 120).
		MaxLen(fieldNotes, input.Notes, maxNotesLength).
		Phone(fieldPhone, input.Phone).
		Date(fieldBirthday, input.Birthday)

	if input.Email != "" {
		v.Email(fieldEmail, input.Email)
	}
}

// parseBirthday converts the validated date string into a time pointer.
func parseBirthday(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(validate.DateLayout, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

/*
List returns a page of the caller's contacts.

GET /api/v1/contacts?page=1&limit=20&search=jose

Response:
  - 200: []Contact with pagination metadata
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	filter := Filter{Search: request.URL.Query().Get("search")}

	contactList, meta, err := handler.contactService.List(request.Context(), ownerID, filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if contactList == nil {
		contactList = []*Contact{}
	}

	respond.Paginated(writer, contactList, meta)
}

/*
Create adds a contact to the caller's address book.

POST /api/v1/contacts

Request:
  - Body: contactRequest

Response:
  - 201: Contact: Created entry
  - 400: ErrInvalidJSON: Bad input or validation failure
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input contactRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	validateContactFields(v, input)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Create(request.Context(), ownerID, CreateInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Birthday:  parseBirthday(input.Birthday),
		Notes:     input.Notes,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, contact)
}

/*
Get returns a single contact.

GET /api/v1/contacts/{contactID}

Response:
  - 200: Contact
  - 404: ErrNotFound: Unknown ID or another owner's contact
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contactID := chi.URLParam(request, fieldContactID)

	v := &validate.Validator{}
	v.UUID(fieldContactID, contactID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Get(request.Context(), ownerID, contactID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
Update replaces the mutable fields of a contact.

PUT /api/v1/contacts/{contactID}

Request:
  - Body: contactRequest

Response:
  - 200: Contact: Updated entry
  - 400: ErrInvalidJSON: Validation failure
  - 404: ErrNotFound: Unknown ID or another owner's contact
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contactID := chi.URLParam(request, fieldContactID)

	var input contactRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.UUID(fieldContactID, contactID)
	validateContactFields(v, input)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	contact, err := handler.contactService.Update(request.Context(), ownerID, contactID, UpdateInput{
		FirstName: &input.FirstName,
		LastName:  &input.LastName,
		Email:     &input.Email,
		Phone:     &input.Phone,
		Birthday:  parseBirthday(input.Birthday),
		Notes:     &input.Notes,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, contact)
}

/*
Remove deletes a contact from the caller's address book.

DELETE /api/v1/contacts/{contactID}

Response:
  - 204: No Content: Entry deleted
  - 404: ErrNotFound: Unknown ID or another owner's contact
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	contactID := chi.URLParam(request, fieldContactID)

	v := &validate.Validator{}
	v.UUID(fieldContactID, contactID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.contactService.Delete(request.Context(), ownerID, contactID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
UpcomingBirthdays lists contacts with a birthday in the coming window.

GET /api/v1/contacts/birthdays?days=7

Response:
  - 200: []Contact ordered by next occurrence
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) upcomingBirthdays(writer http.ResponseWriter, request *http.Request) {
	ownerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	withinDays := 0
	if raw := request.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			withinDays = parsed
		}
	}

	contactList, err := handler.contactService.UpcomingBirthdays(request.Context(), ownerID, withinDays)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if contactList == nil {
		contactList = []*Contact{}
	}

	respond.OK(writer, contactList)
}
