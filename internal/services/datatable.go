package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"contact-book/internal/access"
	"contact-book/internal/cache"
	"contact-book/internal/models"
)

const (
	defaultPageLength = 10
	maxPageLength     = 100
	searchSeparator   = "+"
)

// PageLengths is the length menu offered to the client table.
var PageLengths = []int{10, 20, 50, 100}

// orderable maps table column names to SQL. owner and actions are display only.
var orderable = map[string]string{
	"name":          "contacts.name",
	"phone_number":  "contacts.phone_number",
	"email":         "contacts.email",
	"contact_group": "contact_groups.name",
}

// TableRequest is a server side DataTables request.
type TableRequest struct {
	Draw     int
	Start    int
	Length   int
	Search   string
	OrderBy  string
	OrderAsc bool
}

// ParseTableRequest reads DataTables query parameters, falling back to the
// first page ordered by name ascending.
func ParseTableRequest(q url.Values) TableRequest {
	req := TableRequest{
		Draw:     atoiDefault(q.Get("draw"), 0),
		Start:    atoiDefault(q.Get("start"), 0),
		Length:   atoiDefault(q.Get("length"), defaultPageLength),
		Search:   strings.TrimSpace(q.Get("search[value]")),
		OrderBy:  "name",
		OrderAsc: true,
	}
	if req.Start < 0 {
		req.Start = 0
	}
	if req.Length < 1 || req.Length > maxPageLength {
		req.Length = defaultPageLength
	}

	if col := q.Get("order[0][column]"); col != "" {
		name := q.Get(fmt.Sprintf("columns[%s][data]", col))
		if name == "" {
			name = q.Get(fmt.Sprintf("columns[%s][name]", col))
		}
		if _, ok := orderable[name]; ok {
			req.OrderBy = name
			req.OrderAsc = !strings.EqualFold(q.Get("order[0][dir]"), "desc")
		}
	}
	return req
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// TablePage is one page of contacts with the counts DataTables expects.
type TablePage struct {
	Draw            int
	RecordsTotal    int64
	RecordsFiltered int64
	Contacts        []models.Contact
}

// searchTerms splits the search box value; every term has to match one of
// the searchable columns.
func searchTerms(search string) []string {
	var terms []string
	for _, t := range strings.Split(search, searchSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// searchScope matches name, phone_number, email and the group name.
func searchScope(terms []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, t := range terms {
			p := likePattern(t)
			db = db.Where(`(LOWER(contacts.name) LIKE ? ESCAPE '\'`+
				` OR contacts.phone_number LIKE ? ESCAPE '\'`+
				` OR LOWER(COALESCE(contacts.email, '')) LIKE ? ESCAPE '\'`+
				` OR LOWER(contact_groups.name) LIKE ? ESCAPE '\')`, p, p, p, p)
		}
		return db
	}
}

func orderClause(req TableRequest) string {
	col, ok := orderable[req.OrderBy]
	if !ok {
		col = orderable["name"]
	}
	dir := "ASC"
	if !req.OrderAsc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, contacts.id %s", col, dir, dir)
}

// filtered is the visible set narrowed by search, joined with groups.
func (s *ContactService) filtered(ctx context.Context, actor access.Actor, search string) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Contact{}).
		Joins("JOIN contact_groups ON contact_groups.id = contacts.contact_group_id").
		Scopes(access.VisibleContacts(actor), searchScope(searchTerms(search)))
}

// Table serves the client side data table. The visible scope is applied
// before search, ordering and paging so none of them can widen it.
func (s *ContactService) Table(ctx context.Context, actor access.Actor, req TableRequest) (*TablePage, error) {
	key := cache.ScopeKey(access.SeesAllContacts(actor.Role), actor.ID)
	total, err := s.counts.Get(ctx, key, func() (int64, error) {
		var n int64
		err := s.db.WithContext(ctx).Model(&models.Contact{}).
			Scopes(access.VisibleContacts(actor)).
			Count(&n).Error
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("count visible contacts: %w", err)
	}

	page := &TablePage{Draw: req.Draw, RecordsTotal: total}
	if err := s.filtered(ctx, actor, req.Search).Count(&page.RecordsFiltered).Error; err != nil {
		return nil, fmt.Errorf("count filtered contacts: %w", err)
	}

	err = s.filtered(ctx, actor, req.Search).
		Select("contacts.*").
		Preload("ContactGroup").
		Preload("Owner").
		Order(orderClause(req)).
		Offset(req.Start).
		Limit(req.Length).
		Find(&page.Contacts).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return page, nil
}

// Visible returns every contact the actor can read, ordered by name.
func (s *ContactService) Visible(ctx context.Context, actor access.Actor, search string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.filtered(ctx, actor, search).
		Select("contacts.*").
		Preload("ContactGroup").
		Preload("Owner").
		Order(orderClause(TableRequest{OrderBy: "name", OrderAsc: true})).
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}
