package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"contact-book/internal/access"
	"contact-book/internal/common"
	"contact-book/internal/middleware"
	"contact-book/internal/models"
	"contact-book/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// contactFormValues is what the form inputs are refilled with.
type contactFormValues struct {
	Name           string
	PhoneNumber    string
	Email          string
	ContactGroupID uint
}

func formValuesOf(c *models.Contact) contactFormValues {
	return contactFormValues{
		Name:           c.Name,
		PhoneNumber:    c.PhoneNumber,
		Email:          c.EmailValue(),
		ContactGroupID: c.ContactGroupID,
	}
}

func formValuesFromInput(in services.ContactInput) contactFormValues {
	return contactFormValues{
		Name:           in.Name,
		PhoneNumber:    in.PhoneNumber,
		Email:          in.Email,
		ContactGroupID: in.ContactGroupID,
	}
}

// LoadContact resolves :id for RequireOwnership.
func (h *Handler) LoadContact(c *gin.Context) (any, uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, 0, fmt.Errorf("contact %q: %w", c.Param("id"), common.ErrNotFound)
	}
	contact, err := h.contacts.Get(c.Request.Context(), uint(id))
	if err != nil {
		return nil, 0, err
	}
	return contact, contact.OwnerID, nil
}

func ownedContact(c *gin.Context) (*models.Contact, bool) {
	contact, ok := middleware.Resource[*models.Contact](c)
	if !ok {
		fail(c, fmt.Errorf("contact missing from context: %w", common.ErrNotFound))
	}
	return contact, ok
}

func (h *Handler) ContactsPage(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	h.render(c, http.StatusOK, "contacts_list.html", gin.H{
		"Title":       "Contacts",
		"PageLengths": services.PageLengths,
		"ShowOwner":   access.SeesAllContacts(actor.Role),
	})
}

// ContactsData answers the server side table.
func (h *Handler) ContactsData(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	req := services.ParseTableRequest(c.Request.URL.Query())

	page, err := h.contacts.Table(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	rows := make([]gin.H, 0, len(page.Contacts))
	for i := range page.Contacts {
		contact := &page.Contacts[i]
		actions, err := h.renderFragment("contact_actions.html", gin.H{
			"CanEdit": access.IsOwner(actor.ID, contact.OwnerID),
			"Contact": contact,
		})
		if err != nil {
			fail(c, err)
			return
		}
		// the table inserts cells as HTML
		rows = append(rows, gin.H{
			"id":            contact.ID,
			"name":          template.HTMLEscapeString(contact.Name),
			"phone_number":  template.HTMLEscapeString(contact.PhoneNumber),
			"email":         template.HTMLEscapeString(contact.EmailValue()),
			"contact_group": template.HTMLEscapeString(contact.ContactGroup.Name),
			"owner":         template.HTMLEscapeString(contact.Owner.Email),
			"actions":       actions,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"draw":            page.Draw,
		"recordsTotal":    page.RecordsTotal,
		"recordsFiltered": page.RecordsFiltered,
		"data":            rows,
	})
}

// contactForm builds the template data shared by the create and edit forms.
func (h *Handler) contactForm(c *gin.Context, contact *models.Contact, values contactFormValues, errs map[string][]string) (gin.H, error) {
	actor, _ := middleware.CurrentActor(c)
	groups, err := h.groups.Selectable(c.Request.Context(), actor, "")
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = map[string][]string{}
	}

	data := gin.H{
		"Title":       "New contact",
		"Action":      "/contacts/new",
		"Contact":     contact,
		"Form":        values,
		"Errors":      errs,
		"Groups":      groups,
		"HasImage":    false,
		"PicturePath": "",
	}
	if contact != nil {
		data["Title"] = "Edit contact"
		data["Action"] = fmt.Sprintf("/contacts/%d/edit", contact.ID)
		data["HasImage"] = contact.HasPicture()
		data["PicturePath"] = contact.PicturePath
	}
	return data, nil
}

// showContactForm sends the bare form to the modal, or a full page otherwise.
func (h *Handler) showContactForm(c *gin.Context, contact *models.Contact, values contactFormValues) {
	data, err := h.contactForm(c, contact, values, nil)
	if err != nil {
		fail(c, err)
		return
	}
	if isAJAX(c) {
		html, err := h.renderFragment("contact_form.html", data)
		if err != nil {
			fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}
	h.render(c, http.StatusOK, "contact_form_page.html", data)
}

// rejectContactForm re-renders the form with field errors. AJAX callers get
// a 200 with success=false, like a bound form that failed validation.
func (h *Handler) rejectContactForm(c *gin.Context, contact *models.Contact, in services.ContactInput, ve common.ValidationErrors) {
	data, err := h.contactForm(c, contact, formValuesFromInput(in), ve.ByField())
	if err != nil {
		fail(c, err)
		return
	}
	if !isAJAX(c) {
		h.render(c, http.StatusOK, "contact_form_page.html", data)
		return
	}
	html, err := h.renderFragment("contact_form.html", data)
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"success": false, "html_form": html}
	if contact != nil {
		resp["has_image"] = contact.HasPicture()
	}
	c.JSON(http.StatusOK, resp)
}

func contactJSON(contact *models.Contact) gin.H {
	return gin.H{
		"id":            contact.ID,
		"name":          contact.Name,
		"phone_number":  contact.PhoneNumber,
		"email":         contact.EmailValue(),
		"contact_group": contact.ContactGroup.Name,
	}
}

// contactSaved answers a successful write. contact is nil after a delete.
func (h *Handler) contactSaved(c *gin.Context, message string, contact *models.Contact) {
	if !isAJAX(c) {
		c.Redirect(http.StatusFound, "/contacts")
		return
	}
	resp := gin.H{"success": true, "message": message}
	if contact != nil {
		resp["contact"] = contactJSON(contact)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) NewContact(c *gin.Context) {
	h.showContactForm(c, nil, contactFormValues{})
}

func (h *Handler) CreateContact(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	in, closeUpload, err := contactInputFromRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer closeUpload()

	created, err := h.contacts.Create(c.Request.Context(), actor, in)
	var ve common.ValidationErrors
	switch {
	case errors.As(err, &ve):
		h.rejectContactForm(c, nil, in, ve)
	case err != nil:
		fail(c, err)
	default:
		h.contactSaved(c, "Contact created successfully.", created)
	}
}

// EditContact is mounted behind RequireOwnership.
func (h *Handler) EditContact(c *gin.Context) {
	contact, ok := ownedContact(c)
	if !ok {
		return
	}
	h.showContactForm(c, contact, formValuesOf(contact))
}

func (h *Handler) UpdateContact(c *gin.Context) {
	contact, ok := ownedContact(c)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	in, closeUpload, err := contactInputFromRequest(c)
	if err != nil {
		fail(c, err)
		return
	}
	defer closeUpload()

	updated, err := h.contacts.Update(c.Request.Context(), actor, contact.ID, in)
	var ve common.ValidationErrors
	switch {
	case errors.As(err, &ve):
		h.rejectContactForm(c, contact, in, ve)
	case err != nil:
		fail(c, err)
	default:
		h.contactSaved(c, "Contact updated successfully.", updated)
	}
}

func (h *Handler) DeleteContact(c *gin.Context) {
	contact, ok := ownedContact(c)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	if err := h.contacts.Delete(c.Request.Context(), actor, contact.ID); err != nil {
		fail(c, err)
		return
	}
	h.contactSaved(c, "Contact deleted successfully.", nil)
}

// ExportContacts downloads the visible contacts as a spreadsheet.
func (h *Handler) ExportContacts(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	var buf bytes.Buffer
	n, err := h.contacts.Export(c.Request.Context(), actor, c.Query("q"), &buf)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Logger(c).Info("contacts exported", "user_id", actor.ID, "rows", n)

	c.Header("Content-Disposition", `attachment; filename="contacts.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Media serves a picture to users who can see a contact that uses it.
func (h *Handler) Media(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	path := strings.TrimPrefix(c.Param("path"), "/")

	rc, err := h.contacts.OpenPicture(c.Request.Context(), actor, path)
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()

	body, err := io.ReadAll(io.LimitReader(rc, services.MaxPictureSize+1))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, http.DetectContentType(body), body)
}

// contactInputFromRequest reads the multipart contact form. An unparsable
// group id reads as no selection.
func contactInputFromRequest(c *gin.Context) (services.ContactInput, func(), error) {
	in := services.ContactInput{
		Name:         c.PostForm("name"),
		PhoneNumber:  c.PostForm("phone_number"),
		Email:        c.PostForm("email"),
		ClearPicture: c.PostForm("contact_picture-clear") != "",
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("contact_group")), 10, 64); err == nil {
		in.ContactGroupID = uint(id)
	}

	noop := func() {}
	fh, err := c.FormFile("contact_picture")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, noop, nil
	case err != nil:
		return in, noop, fmt.Errorf("read picture upload: %w", errors.Join(common.ErrValidation, err))
	}
	if fh.Size == 0 && fh.Filename == "" {
		return in, noop, nil
	}

	f, err := fh.Open()
	if err != nil {
		return in, noop, fmt.Errorf("open picture upload: %w", err)
	}
	in.Picture = uploadFrom(fh, f)
	return in, func() { f.Close() }, nil
}

func uploadFrom(fh *multipart.FileHeader, f multipart.File) *services.Upload {
	return &services.Upload{Filename: fh.Filename, Size: fh.Size, Content: f}
}
