package main

// MenuItem is a dish served at a station of a dining commons.
type MenuItem struct {
	ID                int64  `json:"id"`
	DiningCommonsCode string `json:"diningCommonsCode"`
	Name              string `json:"name"`
	Station           string `json:"station"`
}

func (m MenuItem) Key() int64 { return m.ID }

func (m MenuItem) WithKey(id int64) MenuItem {
	m.ID = id
	return m
}

var menuItems = &ResourceDef[MenuItem, int64]{
	Name:     "UCSBDiningCommonsMenuItem",
	KeyParam: "id",
	ParseKey: parseID,
	NextKey:  nextID,
	Bind: func(p *params) MenuItem {
		return MenuItem{
			DiningCommonsCode: p.String("diningCommonsCode"),
			Name:              p.String("name"),
			Station:           p.String("station"),
		}
	},
	Table: Table[MenuItem]{
		Name:    "menu_items",
		Key:     "id",
		Columns: []string{"dining_commons_code", "name", "station"},
		DDL: `CREATE TABLE IF NOT EXISTS menu_items (
	id BIGSERIAL PRIMARY KEY,
	dining_commons_code TEXT NOT NULL,
	name TEXT NOT NULL,
	station TEXT NOT NULL
)`,
		Scan: func(row scanner) (MenuItem, error) {
			var m MenuItem
			err := row.Scan(&m.ID, &m.DiningCommonsCode, &m.Name, &m.Station)
			return m, err
		},
		Values: func(m MenuItem) []any {
			return []any{m.DiningCommonsCode, m.Name, m.Station}
		},
	},
}
