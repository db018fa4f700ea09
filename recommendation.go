package main

// Recommendation is a student's request for a letter of recommendation.
type Recommendation struct {
	ID             int64  `json:"id"`
	RequesterEmail string `json:"requesterEmail" validate:"omitempty,email"`
	ProfessorEmail string `json:"professorEmail" validate:"omitempty,email"`
	Explanation    string `json:"explanation"`
	DateRequested  Date   `json:"dateRequested"`
	DateNeeded     Date   `json:"dateNeeded"`
	Done           bool   `json:"done"`
}

func (rec Recommendation) Key() int64 { return rec.ID }

func (rec Recommendation) WithKey(id int64) Recommendation {
	rec.ID = id
	return rec
}

// Students file their own requests, so creating one only needs USER.
var recommendations = &ResourceDef[Recommendation, int64]{
	Name:     "Recommendation",
	KeyParam: "id",
	ParseKey: parseID,
	NextKey:  nextID,
	Policy:   Policy{OpCreate: RoleUser},
	Bind: func(p *params) Recommendation {
		return Recommendation{
			RequesterEmail: p.String("requesterEmail"),
			ProfessorEmail: p.String("professorEmail"),
			Explanation:    p.String("explanation"),
			DateRequested:  p.Date("dateRequested"),
			DateNeeded:     p.Date("dateNeeded"),
			Done:           p.Bool("done"),
		}
	},
	Table: Table[Recommendation]{
		Name:    "recommendations",
		Key:     "id",
		Columns: []string{"requester_email", "professor_email", "explanation", "date_requested", "date_needed", "done"},
		DDL: `CREATE TABLE IF NOT EXISTS recommendations (
	id BIGSERIAL PRIMARY KEY,
	requester_email TEXT NOT NULL,
	professor_email TEXT NOT NULL,
	explanation TEXT NOT NULL,
	date_requested DATE,
	date_needed DATE,
	done BOOLEAN NOT NULL DEFAULT FALSE
)`,
		Scan: func(row scanner) (Recommendation, error) {
			var rec Recommendation
			err := row.Scan(&rec.ID, &rec.RequesterEmail, &rec.ProfessorEmail, &rec.Explanation, &rec.DateRequested, &rec.DateNeeded, &rec.Done)
			return rec, err
		},
		Values: func(rec Recommendation) []any {
			return []any{rec.RequesterEmail, rec.ProfessorEmail, rec.Explanation, rec.DateRequested, rec.DateNeeded, rec.Done}
		},
	},
}
