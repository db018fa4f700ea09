package main

// Organization is a student organization identified by its code.
type Organization struct {
	OrgCode             string `json:"orgCode"`
	OrgTranslationShort string `json:"orgTranslationShort"`
	OrgTranslation      string `json:"orgTranslation"`
	Inactive            bool   `json:"inactive"`
}

func (o Organization) Key() string { return o.OrgCode }

func (o Organization) WithKey(code string) Organization {
	o.OrgCode = code
	return o
}

var organizations = &ResourceDef[Organization, string]{
	Name:     "UCSBOrganization",
	KeyParam: "orgCode",
	ParseKey: parseCode,
	Bind: func(p *params) Organization {
		return Organization{
			OrgCode:             p.String("orgCode"),
			OrgTranslationShort: p.String("orgTranslationShort"),
			OrgTranslation:      p.String("orgTranslation"),
			Inactive:            p.Bool("inactive"),
		}
	},
	Table: Table[Organization]{
		Name:    "organizations",
		Key:     "org_code",
		Columns: []string{"org_translation_short", "org_translation", "inactive"},
		DDL: `CREATE TABLE IF NOT EXISTS organizations (
	org_code TEXT PRIMARY KEY,
	org_translation_short TEXT NOT NULL,
	org_translation TEXT NOT NULL,
	inactive BOOLEAN NOT NULL DEFAULT FALSE
)`,
		Scan: func(row scanner) (Organization, error) {
			var o Organization
			err := row.Scan(&o.OrgCode, &o.OrgTranslationShort, &o.OrgTranslation, &o.Inactive)
			return o, err
		},
		Values: func(o Organization) []any {
			return []any{o.OrgTranslationShort, o.OrgTranslation, o.Inactive}
		},
	},
}
