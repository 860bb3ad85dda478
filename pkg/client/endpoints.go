package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// EntityKind names the entity families that carry notes and tags.
type EntityKind string

const (
	EntityAccount   EntityKind = "account"
	EntityHost      EntityKind = "host"
	EntityDetection EntityKind = "detection"
)

// Plural returns the collection name of the kind, e.g. "accounts".
func (k EntityKind) Plural() string {
	return string(k) + "s"
}

// list routes a list call through the auto-paginator when all is set.
func (c *Client) list(ctx context.Context, endpoint string, all bool, params url.Values) (Object, error) {
	if all {
		return c.GetAllPages(ctx, endpoint, params), nil
	}
	return c.Get(ctx, endpoint, params)
}

// Accounts lists accounts.
func (c *Client) Accounts(ctx context.Context, p AccountListParams) (Object, error) {
	return c.list(ctx, "accounts", p.All, p.Query())
}

// Account fetches one account.
func (c *Client) Account(ctx context.Context, id int, p AccountParams) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("accounts/%d", id), p.Query())
}

// Hosts lists hosts.
func (c *Client) Hosts(ctx context.Context, p HostListParams) (Object, error) {
	return c.list(ctx, "hosts", p.All, p.Query())
}

// Host fetches one host.
func (c *Client) Host(ctx context.Context, id int) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("hosts/%d", id), nil)
}

// SearchAccounts runs an advanced account search.
func (c *Client) SearchAccounts(ctx context.Context, p SearchParams) (Object, error) {
	return c.list(ctx, "search/accounts", p.All, p.Query())
}

// SearchHosts runs an advanced host search.
func (c *Client) SearchHosts(ctx context.Context, p SearchParams) (Object, error) {
	return c.list(ctx, "search/hosts", p.All, p.Query())
}

// SearchDetections runs an advanced detection search.
func (c *Client) SearchDetections(ctx context.Context, p SearchParams) (Object, error) {
	return c.list(ctx, "search/detections", p.All, p.Query())
}

// Detections lists detections.
func (c *Client) Detections(ctx context.Context, p DetectionListParams) (Object, error) {
	return c.list(ctx, "detections", p.All, p.Query())
}

// Detection fetches one detection.
func (c *Client) Detection(ctx context.Context, id int) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("detections/%d", id), nil)
}

// DetectionPCAP downloads the packet capture of a detection.
func (c *Client) DetectionPCAP(ctx context.Context, id int) ([]byte, error) {
	return c.GetBytes(ctx, fmt.Sprintf("detections/%d/pcap", id), nil)
}

// MarkDetectionsFixed sets or clears the fixed state of detections.
func (c *Client) MarkDetectionsFixed(ctx context.Context, ids []int, fixed bool) (Object, error) {
	body := map[string]any{
		"detectionIdList": ids,
		"mark_as_fixed":   strconv.FormatBool(fixed),
	}
	return c.Patch(ctx, "detections", body)
}

// Events lists events.
func (c *Client) Events(ctx context.Context, p EventListParams) (Object, error) {
	return c.list(ctx, "events", p.All, p.Query())
}

// Assignments lists assignments.
func (c *Client) Assignments(ctx context.Context, p AssignmentListParams) (Object, error) {
	return c.list(ctx, "assignments", p.All, p.Query())
}

// Assignment fetches one assignment.
func (c *Client) Assignment(ctx context.Context, id int) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("assignments/%d", id), nil)
}

// CreateAssignment assigns an account or host to a user.
func (c *Client) CreateAssignment(ctx context.Context, req AssignmentRequest) (Object, error) {
	if (req.AccountID == nil) == (req.HostID == nil) {
		return nil, fmt.Errorf("exactly one of account id and host id is required")
	}
	return c.Post(ctx, "assignments", req)
}

// DeleteAssignment removes an assignment. The API uses the singular path
// for writes on a single assignment.
func (c *Client) DeleteAssignment(ctx context.Context, id int) (Object, error) {
	return c.Delete(ctx, fmt.Sprintf("assignment/%d", id))
}

// UpdateAssignment replaces fields of an assignment.
func (c *Client) UpdateAssignment(ctx context.Context, id int, update map[string]any) (Object, error) {
	return c.Put(ctx, fmt.Sprintf("assignment/%d", id), update)
}

// Health returns the appliance health report.
func (c *Client) Health(ctx context.Context) (Object, error) {
	return c.Get(ctx, "health", nil)
}

// AddNote attaches a note to an account, host or detection.
func (c *Client) AddNote(ctx context.Context, kind EntityKind, id int, note string) (Object, error) {
	return c.Post(ctx, fmt.Sprintf("%s/%d/notes", kind.Plural(), id), map[string]any{"note": note})
}

// DeleteNote removes a note from an account, host or detection.
func (c *Client) DeleteNote(ctx context.Context, kind EntityKind, id, noteID int) (Object, error) {
	return c.Delete(ctx, fmt.Sprintf("%s/%d/notes/%d", kind.Plural(), id, noteID))
}

// Tags returns the tags of an account, host or detection.
func (c *Client) Tags(ctx context.Context, kind EntityKind, id int) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("tagging/%s/%d", kind, id), nil)
}

// UpdateTags replaces the tags of an account, host or detection.
func (c *Client) UpdateTags(ctx context.Context, kind EntityKind, id int, tags []string) (Object, error) {
	if tags == nil {
		tags = []string{}
	}
	return c.Patch(ctx, fmt.Sprintf("tagging/%s/%d", kind, id), map[string]any{"tags": tags})
}

// Users lists platform users.
func (c *Client) Users(ctx context.Context, p UserListParams) (Object, error) {
	return c.list(ctx, "users", p.All, p.Query())
}

// User fetches one platform user.
func (c *Client) User(ctx context.Context, id int) (Object, error) {
	return c.Get(ctx, fmt.Sprintf("users/%d", id), nil)
}

// SearchByName searches entities by name. With kind set to EntityAccount or
// EntityHost the raw search response is returned; otherwise accounts and
// hosts are searched concurrently and their results returned as
// {"accounts": [...], "hosts": [...]}.
func (c *Client) SearchByName(ctx context.Context, name string, kind EntityKind) (Object, error) {
	params := SearchParams{QueryString: "name:" + name}

	switch kind {
	case EntityAccount:
		return c.SearchAccounts(ctx, params)
	case EntityHost:
		return c.SearchHosts(ctx, params)
	}

	var accounts, hosts Object
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = c.SearchAccounts(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		hosts, err = c.SearchHosts(gctx, params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Object{
		"accounts": resultsOf(accounts),
		"hosts":    resultsOf(hosts),
	}, nil
}

// resultsOf returns the "results" list of a list response, or an empty list.
func resultsOf(o Object) []any {
	if items, ok := o["results"].([]any); ok {
		return items
	}
	return []any{}
}
