package clockify

import "context"

// FixtureClient is a deterministic in-memory Client used by tests and the
// demo mode of the scan binary. Err, when set, is returned by both fetches
// to exercise the collector's failure path.
type FixtureClient struct {
	Entries []RawTimeEntry
	Users   []RawUser
	Err     error
}

func (f *FixtureClient) FetchTimeEntries(_ context.Context, _, _, _ string) ([]RawTimeEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	return f.Entries, nil
}

func (f *FixtureClient) FetchUsers(_ context.Context, _ string) ([]RawUser, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	return f.Users, nil
}

// SampleFixture returns the fixture payload used by the demo mode: a small
// workspace with one healthy entry and one midnight-spanning 14-hour entry.
func SampleFixture() *FixtureClient {
	return &FixtureClient{
		Entries: []RawTimeEntry{
			{
				ID:          "entry1",
				UserID:      "emp-123",
				ProjectID:   "proj-1",
				TaskID:      "task-1",
				Description: "Working on feature X",
				TimeInterval: RawInterval{
					Start:    "2025-07-10T09:00:00Z",
					End:      "2025-07-10T17:00:00Z",
					Duration: "PT8H",
				},
				Billable: true,
				Tags:     []string{"development"},
			},
			{
				ID:          "entry2",
				UserID:      "emp-456",
				ProjectID:   "proj-2",
				TaskID:      "task-2",
				Description: "Client meeting",
				TimeInterval: RawInterval{
					Start:    "2025-07-11T10:00:00Z",
					End:      "2025-07-12T00:00:00Z",
					Duration: "PT14H",
				},
				Billable: true,
				Tags:     []string{"meeting", "client"},
			},
		},
		Users: []RawUser{
			{ID: "emp-123", Name: "Sarah Johnson", Email: "sarah.johnson@example.com", Status: "active"},
			{ID: "emp-456", Name: "Michael Chen", Email: "michael.chen@example.com", Status: "active"},
			{ID: "emp-789", Name: "Jessica Williams", Email: "jessica.williams@example.com", Status: "active"},
			{ID: "emp-101", Name: "David Rodriguez", Email: "david.rodriguez@example.com", Status: "active"},
			{ID: "emp-112", Name: "Emma Thompson", Email: "emma.thompson@example.com", Status: "active"},
		},
	}
}
