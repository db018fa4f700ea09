package main

// Review is a diner's rating of a menu item.
type Review struct {
	ID            int64  `json:"id"`
	ItemID        int64  `json:"itemId"`
	ReviewerEmail string `json:"reviewerEmail" validate:"omitempty,email"`
	Stars         int    `json:"stars"`
	DateReviewed  Date   `json:"dateReviewed"`
	Comments      string `json:"comments"`
}

func (rv Review) Key() int64 { return rv.ID }

func (rv Review) WithKey(id int64) Review {
	rv.ID = id
	return rv
}

var reviews = &ResourceDef[Review, int64]{
	Name:     "MenuItemReview",
	KeyParam: "id",
	ParseKey: parseID,
	NextKey:  nextID,
	Bind: func(p *params) Review {
		return Review{
			ItemID:        p.Int64("itemId"),
			ReviewerEmail: p.String("reviewerEmail"),
			Stars:         p.Int("stars"),
			DateReviewed:  p.Date("dateReviewed"),
			Comments:      p.String("comments"),
		}
	},
	Table: Table[Review]{
		Name:    "menu_item_reviews",
		Key:     "id",
		Columns: []string{"item_id", "reviewer_email", "stars", "date_reviewed", "comments"},
		DDL: `CREATE TABLE IF NOT EXISTS menu_item_reviews (
	id BIGSERIAL PRIMARY KEY,
	item_id BIGINT NOT NULL,
	reviewer_email TEXT NOT NULL,
	stars INTEGER NOT NULL,
	date_reviewed DATE,
	comments TEXT NOT NULL
)`,
		Scan: func(row scanner) (Review, error) {
			var rv Review
			err := row.Scan(&rv.ID, &rv.ItemID, &rv.ReviewerEmail, &rv.Stars, &rv.DateReviewed, &rv.Comments)
			return rv, err
		},
		Values: func(rv Review) []any {
			return []any{rv.ItemID, rv.ReviewerEmail, rv.Stars, rv.DateReviewed, rv.Comments}
		},
	},
}
