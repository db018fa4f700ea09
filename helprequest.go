package main

// HelpRequest is a request for staff help from a team during a lab section.
type HelpRequest struct {
	ID                  int64    `json:"id"`
	RequesterEmail      string   `json:"requesterEmail" validate:"omitempty,email"`
	TeamID              string   `json:"teamId"`
	TableOrBreakoutRoom string   `json:"tableOrBreakoutRoom"`
	RequestTime         DateTime `json:"requestTime"`
	Explanation         string   `json:"explanation"`
	Solved              bool     `json:"solved"`
}

func (h HelpRequest) Key() int64 { return h.ID }

func (h HelpRequest) WithKey(id int64) HelpRequest {
	h.ID = id
	return h
}

var helpRequests = &ResourceDef[HelpRequest, int64]{
	Name:     "HelpRequest",
	KeyParam: "id",
	ParseKey: parseID,
	NextKey:  nextID,
	Bind: func(p *params) HelpRequest {
		return HelpRequest{
			RequesterEmail:      p.String("requesterEmail"),
			TeamID:              p.String("teamId"),
			TableOrBreakoutRoom: p.String("tableOrBreakoutRoom"),
			RequestTime:         p.DateTime("requestTime"),
			Explanation:         p.String("explanation"),
			Solved:              p.Bool("solved"),
		}
	},
	Table: Table[HelpRequest]{
		Name:    "help_requests",
		Key:     "id",
		Columns: []string{"requester_email", "team_id", "table_or_breakout_room", "request_time", "explanation", "solved"},
		DDL: `CREATE TABLE IF NOT EXISTS help_requests (
	id BIGSERIAL PRIMARY KEY,
	requester_email TEXT NOT NULL,
	team_id TEXT NOT NULL,
	table_or_breakout_room TEXT NOT NULL,
	request_time TIMESTAMP,
	explanation TEXT NOT NULL,
	solved BOOLEAN NOT NULL DEFAULT FALSE
)`,
		Scan: func(row scanner) (HelpRequest, error) {
			var h HelpRequest
			err := row.Scan(&h.ID, &h.RequesterEmail, &h.TeamID, &h.TableOrBreakoutRoom, &h.RequestTime, &h.Explanation, &h.Solved)
			return h, err
		},
		Values: func(h HelpRequest) []any {
			return []any{h.RequesterEmail, h.TeamID, h.TableOrBreakoutRoom, h.RequestTime, h.Explanation, h.Solved}
		},
	},
}
