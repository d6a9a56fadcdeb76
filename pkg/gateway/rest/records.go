package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

const (
	notesPath     = "/rest/v1/notes"
	listColumns   = "id,title,content,updated_at"
	detailColumns = "id,title,content,updated_at,user_id"
)

// recordID accepts both numeric and text primary keys.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = recordID(n.String())
	return nil
}

// row is a notes table row as PostgREST returns it.
type row struct {
	ID        recordID `json:"id"`
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	UpdatedAt string   `json:"updated_at"`
	UserID    string   `json:"user_id,omitempty"`
}

func (r row) detail() note.Detail {
	d := note.Detail{ID: string(r.ID)}
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Content != nil {
		d.Content = *r.Content
	}
	if r.UpdatedAt != "" {
		if t, err := note.ParseTime(r.UpdatedAt); err == nil {
			d.UpdatedAt = t
		}
	}
	return d
}

// payload is what we send on insert and update.
type payload struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
	UserID    string `json:"user_id,omitempty"`
}

func (c *Client) fields(owner note.Identity, f note.Fields, withOwner bool) payload {
	ts := f.UpdatedAt
	if ts.IsZero() {
		ts = c.now()
	}
	p := payload{
		Title:     f.Title,
		Content:   f.Content,
		UpdatedAt: note.FormatTime(ts),
	}
	if withOwner {
		p.UserID = owner.ID
	}
	return p
}

// ilikePattern builds a PostgREST ilike pattern matching term anywhere.
// Wildcards inside the term are escaped so they match literally.
func ilikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)
	return "*" + r.Replace(term) + "*"
}

func ownedQuery(id string, owner note.Identity) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+owner.ID)
	return q
}

func (c *Client) ListRecords(ctx context.Context, owner note.Identity, titleFilter string) ([]note.Summary, error) {
	const op = "list"
	token, err := c.authorize(ctx, op)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", listColumns)
	q.Set("user_id", "eq."+owner.ID)
	q.Set("order", "updated_at.desc")
	if term := strings.TrimSpace(titleFilter); term != "" {
		q.Set("title", "ilike."+ilikePattern(term))
	}

	var rows []row
	if err := call(ctx, c, request{op: op, method: http.MethodGet, path: notesPath, query: q, bearer: token}, &rows); err != nil {
		return nil, err
	}
	out := make([]note.Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.detail().Summary())
	}
	return out, nil
}

func (c *Client) GetRecord(ctx context.Context, id string, owner note.Identity) (note.Detail, error) {
	const op = "get"
	token, err := c.authorize(ctx, op)
	if err != nil {
		return note.Detail{}, err
	}
	q := ownedQuery(id, owner)
	q.Set("select", detailColumns)
	q.Set("limit", "1")

	var rows []row
	if err := call(ctx, c, request{op: op, method: http.MethodGet, path: notesPath, query: q, bearer: token}, &rows); err != nil {
		return note.Detail{}, err
	}
	return single(op, id, rows)
}

func (c *Client) CreateRecord(ctx context.Context, owner note.Identity, fields note.Fields) (note.Detail, error) {
	const op = "create"
	token, err := c.authorize(ctx, op)
	if err != nil {
		return note.Detail{}, err
	}
	q := url.Values{}
	q.Set("select", detailColumns)

	var rows []row
	req := request{
		op:      op,
		method:  http.MethodPost,
		path:    notesPath,
		query:   q,
		body:    []payload{c.fields(owner, fields, true)},
		bearer:  token,
		headers: map[string]string{"Prefer": "return=representation"},
	}
	if err := call(ctx, c, req, &rows); err != nil {
		return note.Detail{}, err
	}
	if len(rows) == 0 {
		return note.Detail{}, gateway.Errorf(gateway.KindNetwork, op, "backend returned no record")
	}
	return rows[0].detail(), nil
}

func (c *Client) UpdateRecord(ctx context.Context, id string, owner note.Identity, fields note.Fields) (note.Detail, error) {
	const op = "update"
	token, err := c.authorize(ctx, op)
	if err != nil {
		return note.Detail{}, err
	}
	q := ownedQuery(id, owner)
	q.Set("select", detailColumns)

	var rows []row
	req := request{
		op:      op,
		method:  http.MethodPatch,
		path:    notesPath,
		query:   q,
		body:    c.fields(owner, fields, false),
		bearer:  token,
		headers: map[string]string{"Prefer": "return=representation"},
	}
	if err := call(ctx, c, req, &rows); err != nil {
		return note.Detail{}, err
	}
	return single(op, id, rows)
}

func (c *Client) DeleteRecord(ctx context.Context, id string, owner note.Identity) error {
	const op = "delete"
	token, err := c.authorize(ctx, op)
	if err != nil {
		return err
	}
	q := ownedQuery(id, owner)
	q.Set("select", "id")

	var rows []row
	req := request{
		op:      op,
		method:  http.MethodDelete,
		path:    notesPath,
		query:   q,
		bearer:  token,
		headers: map[string]string{"Prefer": "return=representation"},
	}
	if err := call(ctx, c, req, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return gateway.Errorf(gateway.KindNotFound, op, "note %s not found", id)
	}
	return nil
}

// single turns a filtered result set into exactly one record. Row level
// security hides foreign rows, so an empty set covers both "missing" and
// "not yours".
func single(op, id string, rows []row) (note.Detail, error) {
	if len(rows) == 0 {
		return note.Detail{}, gateway.Errorf(gateway.KindNotFound, op, "note %s not found", id)
	}
	return rows[0].detail(), nil
}
