package client

import (
	"net/url"
	"testing"
)

func TestParams_Query(t *testing.T) {
	tests := []struct {
		name   string
		params interface{ Query() url.Values }
		want   url.Values
	}{
		{
			name:   "empty account list",
			params: AccountListParams{},
			want:   url.Values{},
		},
		{
			name: "account list filters",
			params: AccountListParams{
				Paging:    Paging{Page: Int(2), PageSize: Int(50)},
				Ordering:  "-t_score",
				State:     "active",
				ThreatGTE: Int(0),
				Tags:      []string{"vip", "finance"},
				Name:      "svc",
			},
			want: url.Values{
				"page":       {"2"},
				"page_size":  {"50"},
				"ordering":   {"-t_score"},
				"state":      {"active"},
				"threat_gte": {"0"},
				"tags":       {"vip,finance"},
				"name":       {"svc"},
			},
		},
		{
			name: "auto paginate drops page",
			params: HostListParams{
				Paging:     Paging{Page: Int(4), PageSize: Int(100), All: true},
				IsKeyAsset: Bool(false),
			},
			want: url.Values{
				"page_size":    {"100"},
				"is_key_asset": {"false"},
			},
		},
		{
			name: "account details",
			params: AccountParams{
				Fields:               []string{"id", "name"},
				IncludeAccessHistory: Bool(true),
			},
			want: url.Values{
				"fields":                 {"id,name"},
				"include_access_history": {"true"},
			},
		},
		{
			name: "detection list",
			params: DetectionListParams{
				State:               "active",
				DetectionCategory:   "lateral",
				SrcIP:               "10.0.0.5",
				IsTargetingKeyAsset: Bool(false),
				LastTimestampGTE:    "2024-01-01T00:00:00+00:00",
				LastTimestampLTE:    "2024-01-31T00:00:00+00:00",
				HostID:              Int(12),
			},
			want: url.Values{
				"state":                  {"active"},
				"detection_category":     {"lateral"},
				"src_ip":                 {"10.0.0.5"},
				"is_targeting_key_asset": {"false"},
				"last_timestamp_gte":     {"2024-01-01T00:00:00+00:00"},
				"last_timestamp_lte":     {"2024-01-31T00:00:00+00:00"},
				"host_id":                {"12"},
			},
		},
		{
			name: "assignments",
			params: AssignmentListParams{
				Accounts:  []int{1, 2},
				Assignees: []int{7},
				Resolved:  Bool(false),
			},
			want: url.Values{
				"accounts":  {"1,2"},
				"assignees": {"7"},
				"resolved":  {"false"},
			},
		},
		{
			name:   "search",
			params: SearchParams{QueryString: "host.name:dc*", Paging: Paging{PageSize: Int(5000)}},
			want: url.Values{
				"query_string": {"host.name:dc*"},
				"page_size":    {"5000"},
			},
		},
		{
			name:   "users",
			params: UserListParams{Role: "admin", AccountType: "SAML", LastLoginGTE: "2024-03-01T00:00:00"},
			want: url.Values{
				"role":           {"admin"},
				"account_type":   {"SAML"},
				"last_login_gte": {"2024-03-01T00:00:00"},
			},
		},
		{
			name:   "events",
			params: EventListParams{Ordering: "-id", Category: "audit"},
			want:   url.Values{"ordering": {"-id"}, "category": {"audit"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.params.Query()
			if got.Encode() != tt.want.Encode() {
				t.Errorf("Query() = %s, want %s", got.Encode(), tt.want.Encode())
			}
		})
	}
}
