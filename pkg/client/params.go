package client

import (
	"net/url"
	"strconv"
	"strings"
)

// Int returns a pointer to v, for optional numeric parameters.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional boolean parameters.
func Bool(v bool) *bool { return &v }

// query builds url.Values from optional fields. Empty strings, nil pointers
// and empty slices are left out.
type query struct {
	values url.Values
}

func newQuery() query {
	return query{values: url.Values{}}
}

func (q query) setString(name, v string) {
	if v != "" {
		q.values.Set(name, v)
	}
}

func (q query) setInt(name string, v *int) {
	if v != nil {
		q.values.Set(name, strconv.Itoa(*v))
	}
}

func (q query) setBool(name string, v *bool) {
	if v != nil {
		q.values.Set(name, strconv.FormatBool(*v))
	}
}

// setList joins the values with commas, the list encoding the API expects.
func (q query) setList(name string, v []string) {
	if len(v) > 0 {
		q.values.Set(name, strings.Join(v, ","))
	}
}

func (q query) setIntList(name string, v []int) {
	if len(v) == 0 {
		return
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	q.values.Set(name, strings.Join(parts, ","))
}

func (q query) setPaging(p Paging) {
	if !p.All {
		q.setInt("page", p.Page)
	}
	q.setInt("page_size", p.PageSize)
}

// Paging is embedded by the parameters of list endpoints.
type Paging struct {
	Page     *int
	PageSize *int

	// All fetches every page through the auto-paginator. Page is ignored.
	All bool
}

// AccountListParams filters GET accounts.
type AccountListParams struct {
	Paging
	Ordering     string
	AccountType  string
	State        string
	Severity     string
	MinThreat    *int
	MaxThreat    *int
	MinCertainty *int
	MaxCertainty *int
	ThreatGTE    *int
	CertaintyGTE *int
	Tags         []string
	Name         string
}

// Query returns the query parameters.
func (p AccountListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setString("ordering", p.Ordering)
	q.setString("account_type", p.AccountType)
	q.setString("state", p.State)
	q.setString("severity", p.Severity)
	q.setInt("min_threat", p.MinThreat)
	q.setInt("max_threat", p.MaxThreat)
	q.setInt("min_certainty", p.MinCertainty)
	q.setInt("max_certainty", p.MaxCertainty)
	q.setInt("threat_gte", p.ThreatGTE)
	q.setInt("certainty_gte", p.CertaintyGTE)
	q.setList("tags", p.Tags)
	q.setString("name", p.Name)
	return q.values
}

// AccountParams selects the fields of GET accounts/{id}.
type AccountParams struct {
	Fields                    []string
	ExcludeFields             []string
	IncludeAccessHistory      *bool
	IncludeDetectionSummaries *bool
	IncludeExternal           *bool
	SrcLinkedAccount          string
}

// Query returns the query parameters.
func (p AccountParams) Query() url.Values {
	q := newQuery()
	q.setList("fields", p.Fields)
	q.setList("exclude_fields", p.ExcludeFields)
	q.setBool("include_access_history", p.IncludeAccessHistory)
	q.setBool("include_detection_summaries", p.IncludeDetectionSummaries)
	q.setBool("include_external", p.IncludeExternal)
	q.setString("src_linked_account", p.SrcLinkedAccount)
	return q.values
}

// HostListParams filters GET hosts.
type HostListParams struct {
	Paging
	Ordering     string
	State        string
	Severity     string
	MinThreat    *int
	MaxThreat    *int
	MinCertainty *int
	MaxCertainty *int
	ThreatGTE    *int
	CertaintyGTE *int
	IsKeyAsset   *bool
	Tags         []string
	Name         string
}

// Query returns the query parameters.
func (p HostListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setString("ordering", p.Ordering)
	q.setString("state", p.State)
	q.setString("severity", p.Severity)
	q.setInt("min_threat", p.MinThreat)
	q.setInt("max_threat", p.MaxThreat)
	q.setInt("min_certainty", p.MinCertainty)
	q.setInt("max_certainty", p.MaxCertainty)
	q.setInt("threat_gte", p.ThreatGTE)
	q.setInt("certainty_gte", p.CertaintyGTE)
	q.setBool("is_key_asset", p.IsKeyAsset)
	q.setList("tags", p.Tags)
	q.setString("name", p.Name)
	return q.values
}

// SearchParams is the advanced search query of search/{accounts,hosts,detections}.
type SearchParams struct {
	Paging
	QueryString string
}

// Query returns the query parameters.
func (p SearchParams) Query() url.Values {
	q := newQuery()
	q.setString("query_string", p.QueryString)
	q.setPaging(p.Paging)
	return q.values
}

// DetectionListParams filters GET detections.
type DetectionListParams struct {
	Paging
	Ordering            string
	Category            string
	DetectionCategory   string
	DetectionType       string
	State               string
	Certainty           *int
	CertaintyGTE        *int
	Threat              *int
	ThreatGTE           *int
	SrcIP               string
	HostID              *int
	IsTargetingKeyAsset *bool
	LastTimestamp       string
	LastTimestampGTE    string
	LastTimestampLTE    string
}

// Query returns the query parameters.
func (p DetectionListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setString("ordering", p.Ordering)
	q.setString("category", p.Category)
	q.setString("detection_category", p.DetectionCategory)
	q.setString("detection_type", p.DetectionType)
	q.setString("state", p.State)
	q.setInt("certainty", p.Certainty)
	q.setInt("certainty_gte", p.CertaintyGTE)
	q.setInt("threat", p.Threat)
	q.setInt("threat_gte", p.ThreatGTE)
	q.setString("src_ip", p.SrcIP)
	q.setInt("host_id", p.HostID)
	q.setBool("is_targeting_key_asset", p.IsTargetingKeyAsset)
	q.setString("last_timestamp", p.LastTimestamp)
	q.setString("last_timestamp_gte", p.LastTimestampGTE)
	q.setString("last_timestamp_lte", p.LastTimestampLTE)
	return q.values
}

// EventListParams filters GET events.
type EventListParams struct {
	Paging
	Ordering string
	Category string
}

// Query returns the query parameters.
func (p EventListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setString("ordering", p.Ordering)
	q.setString("category", p.Category)
	return q.values
}

// AssignmentListParams filters GET assignments. Entity and user lists are
// sent comma separated.
type AssignmentListParams struct {
	Paging
	Accounts     []int
	Assignees    []int
	CreatedAfter string
	Hosts        []int
	Resolution   string
	Resolved     *bool
}

// Query returns the query parameters.
func (p AssignmentListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setIntList("accounts", p.Accounts)
	q.setIntList("assignees", p.Assignees)
	q.setString("created_after", p.CreatedAfter)
	q.setIntList("hosts", p.Hosts)
	q.setString("resolution", p.Resolution)
	q.setBool("resolved", p.Resolved)
	return q.values
}

// UserListParams filters GET users.
type UserListParams struct {
	Paging
	Ordering              string
	Username              string
	Role                  string
	AccountType           string
	AuthenticationProfile string
	LastLoginGTE          string
}

// Query returns the query parameters.
func (p UserListParams) Query() url.Values {
	q := newQuery()
	q.setPaging(p.Paging)
	q.setString("ordering", p.Ordering)
	q.setString("username", p.Username)
	q.setString("role", p.Role)
	q.setString("account_type", p.AccountType)
	q.setString("authentication_profile", p.AuthenticationProfile)
	q.setString("last_login_gte", p.LastLoginGTE)
	return q.values
}

// AssignmentRequest is the body of POST assignments. Exactly one of
// AccountID and HostID is set.
type AssignmentRequest struct {
	AssignToUserID int  `json:"assign_to_user_id"`
	AccountID      *int `json:"assign_account_id,omitempty"`
	HostID         *int `json:"assign_host_id,omitempty"`
}
