package models

// baseFields are the generated identity/timestamp columns shared by every
// entity table; they never appear in import data.
var baseFields = []string{"id", "created_at", "updated_at"}

// DepartmentSchema describes law-enforcement agencies.
var DepartmentSchema = &EntitySchema{
	Name:       "Department",
	Table:      "departments",
	RepoName:   "data_department",
	NaturalKey: "agency_slug",
	AllFields: []string{
		"id", "agency_slug", "agency_name", "city", "parish",
		"location_map_url", "created_at", "updated_at",
	},
	BaseFields: baseFields,
}

// OfficerSchema describes individual officers; the department link is
// resolved from the agency_slug column at import time.
var OfficerSchema = &EntitySchema{
	Name:       "Officer",
	Table:      "officers",
	RepoName:   "data_officer",
	NaturalKey: "uid",
	AllFields: []string{
		"id", "uid", "last_name", "middle_name", "first_name", "race", "sex",
		"birth_year", "birth_month", "birth_day", "department_id",
		"created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"department_id"},
	Kinds: map[string]FieldKind{
		"birth_year":  FieldInt,
		"birth_month": FieldInt,
		"birth_day":   FieldInt,
	},
}

// ComplaintSchema describes misconduct allegations.
var ComplaintSchema = &EntitySchema{
	Name:       "Complaint",
	Table:      "complaints",
	RepoName:   "data_allegation",
	NaturalKey: "allegation_uid",
	AllFields: []string{
		"id", "allegation_uid", "tracking_id", "allegation", "allegation_desc",
		"disposition", "action", "occur_date", "officer_id", "department_id",
		"created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"officer_id", "department_id"},
	Kinds: map[string]FieldKind{
		"occur_date": FieldDate,
	},
}

// BradySchema describes Brady-list entries; the officer link is mandatory.
var BradySchema = &EntitySchema{
	Name:       "Brady",
	Table:      "brady",
	RepoName:   "data_brady",
	NaturalKey: "brady_uid",
	AllFields: []string{
		"id", "brady_uid", "tracking_id_og", "source_agency", "charging_agency",
		"disposition", "action", "officer_id", "department_id",
		"created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"officer_id", "department_id"},
}

// CitizenSchema describes citizens involved in complaint or use-of-force
// events; the linking uids stay as plain text columns.
var CitizenSchema = &EntitySchema{
	Name:       "Citizen",
	Table:      "citizens",
	RepoName:   "data_citizen",
	NaturalKey: "citizen_uid",
	AllFields: []string{
		"id", "citizen_uid", "allegation_uid", "uof_uid", "citizen_arrested",
		"citizen_race", "citizen_sex", "citizen_age", "department_id",
		"created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"department_id"},
	Kinds: map[string]FieldKind{
		"citizen_age": FieldInt,
	},
}

// UseOfForceSchema describes use-of-force incidents; the officer link is
// mandatory.
var UseOfForceSchema = &EntitySchema{
	Name:       "UseOfForce",
	Table:      "use_of_forces",
	RepoName:   "data_use_of_force",
	NaturalKey: "uof_uid",
	AllFields: []string{
		"id", "uof_uid", "tracking_id", "service_type", "disposition",
		"use_of_force_description", "use_of_force_reason", "citizen_arrested",
		"occur_date", "officer_id", "department_id", "created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"officer_id", "department_id"},
	Kinds: map[string]FieldKind{
		"occur_date": FieldDate,
	},
}

// PostOfficerHistorySchema describes POST employment-history rows. The
// natural key doubles as the officer foreign-key column.
var PostOfficerHistorySchema = &EntitySchema{
	Name:       "PostOfficerHistory",
	Table:      "post_officer_histories",
	RepoName:   "data_post_officer_history",
	NaturalKey: "uid",
	AllFields: []string{
		"id", "uid", "history_id", "agency", "left_reason", "hire_date",
		"left_date", "officer_id", "created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"officer_id"},
	Kinds: map[string]FieldKind{
		"hire_date": FieldDate,
		"left_date": FieldDate,
	},
}

// PersonSchema groups duplicate officer records under one canonical officer.
// The derived all_complaints_count column lives on the table but not here:
// downstream recomputation owns it, so it must never be diffed or imported.
var PersonSchema = &EntitySchema{
	Name:       "Person",
	Table:      "people",
	RepoName:   "data_person",
	NaturalKey: "person_id",
	AllFields: []string{
		"id", "person_id", "canonical_uid", "uids",
		"canonical_officer_id", "created_at", "updated_at",
	},
	BaseFields:   baseFields,
	CustomFields: []string{"canonical_officer_id"},
}

// ArticleClassificationSchema describes relevance classifications of news
// articles produced by the upstream classifier.
var ArticleClassificationSchema = &EntitySchema{
	Name:       "ArticleClassification",
	Table:      "article_classifications",
	RepoName:   "data_article_classification",
	NaturalKey: "article_id",
	AllFields: []string{
		"id", "article_id", "title", "score", "relevant",
		"created_at", "updated_at",
	},
	BaseFields: baseFields,
	Kinds: map[string]FieldKind{
		"article_id": FieldInt,
		"score":      FieldFloat,
		"relevant":   FieldBool,
	},
}
