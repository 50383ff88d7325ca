package metadata

// Resource-type tags.
const (
	Notes     = "notes"
	Citations = "citations"
	Projects  = "projects"
	Files     = "files"
	Timeline  = "timeline"
	Profiles  = "profiles"
)

const (
	ownerColumn = "user_id"
	ownerKey    = "userId"
)

// Default returns the registry of every resource the application serves.
func Default() *Registry {
	return MustRegistry(
		NoteResource(),
		CitationResource(),
		ProjectResource(),
		FileResource(),
		TimelineResource(),
		ProfileResource(),
	)
}

func NoteResource() *Resource {
	return &Resource{
		Name:       Notes,
		Label:      "Note",
		Table:      "research_notes",
		OwnerField: ownerColumn,
		OwnerKey:   ownerKey,
		Fields: []Field{
			{Key: "title", Column: "title", Type: Scalar},
			{Key: "content", Column: "content", Type: Scalar},
			{Key: "type", Column: "type", Type: Scalar, Default: "research"},
			{Key: "tags", Column: "tags", Type: Array},
			{Key: "projectId", Column: "project_id", Type: Scalar},
			{Key: "isFavorite", Column: "is_favorite", Type: Scalar, Kind: KindBool, Default: false},
			{Key: "isPublic", Column: "is_public", Type: Scalar, Kind: KindBool, Default: false},
		},
		Filters: []Filter{
			{Key: "type", Column: "type", Mode: Equals},
			{Key: "projectId", Column: "project_id", Mode: Equals},
			{Key: "isFavorite", Column: "is_favorite", Mode: Equals},
			{Key: "tags", Column: "tags", Mode: JSONContains},
			{Key: "title", Column: "title", Mode: ContainsSubstring},
		},
		Required: []string{"title"},
		Ordering: []OrderClause{{Column: UpdatedAtColumn, Desc: true}},
	}
}

func CitationResource() *Resource {
	return &Resource{
		Name:       Citations,
		Label:      "Citation",
		Table:      "citations",
		OwnerField: ownerColumn,
		OwnerKey:   ownerKey,
		Fields: []Field{
			{Key: "type", Column: "type", Type: Scalar},
			{Key: "title", Column: "title", Type: Scalar},
			{Key: "authors", Column: "authors", Type: Array},
			{Key: "journal", Column: "journal", Type: Scalar},
			{Key: "year", Column: "year", Type: Scalar, Kind: KindInt},
			{Key: "doi", Column: "doi", Type: Scalar},
			{Key: "url", Column: "url", Type: Scalar},
			{Key: "pages", Column: "pages", Type: Scalar},
			{Key: "volume", Column: "volume", Type: Scalar},
			{Key: "issue", Column: "issue", Type: Scalar},
			{Key: "publisher", Column: "publisher", Type: Scalar},
			{Key: "tags", Column: "tags", Type: Array},
			{Key: "isFavorite", Column: "is_favorite", Type: Scalar, Kind: KindBool, Default: false},
		},
		Filters: []Filter{
			{Key: "type", Column: "type", Mode: Equals},
			{Key: "year", Column: "year", Mode: Equals},
			{Key: "isFavorite", Column: "is_favorite", Mode: Equals},
			{Key: "tags", Column: "tags", Mode: JSONContains},
			{Key: "title", Column: "title", Mode: ContainsSubstring},
		},
		Required: []string{"type", "title", "authors", "year"},
		Ordering: []OrderClause{{Column: "year", Desc: true}, {Column: CreatedAtColumn, Desc: true}},
		Checks: []*Check{
			{Field: "year", Expression: `"year" in record && record.year != nil && record.year <= 0`, Message: "year must be positive"},
		},
	}
}

func ProjectResource() *Resource {
	return &Resource{
		Name:                   Projects,
		Label:                  "Project",
		Table:                  "research_projects",
		OwnerField:             ownerColumn,
		OwnerKey:               ownerKey,
		CollaboratorField:      "collaborators",
		CollaboratorsMayUpdate: true,
		Fields: []Field{
			{Key: "title", Column: "title", Type: Scalar},
			{Key: "description", Column: "description", Type: Scalar},
			{Key: "status", Column: "status", Type: Scalar, Default: "planning"},
			{Key: "progress", Column: "progress", Type: Scalar, Kind: KindInt, Default: int64(0)},
			{Key: "startDate", Column: "start_date", Type: Scalar, Kind: KindDate},
			{Key: "endDate", Column: "end_date", Type: Scalar, Kind: KindDate},
			{Key: "collaborators", Column: "collaborators", Type: Array},
			{Key: "tags", Column: "tags", Type: Array},
			{Key: "isPrivate", Column: "is_private", Type: Scalar, Kind: KindBool, Default: false},
		},
		Filters: []Filter{
			{Key: "status", Column: "status", Mode: Equals},
			{Key: "isPrivate", Column: "is_private", Mode: Equals},
			{Key: "tags", Column: "tags", Mode: JSONContains},
			{Key: "collaborators", Column: "collaborators", Mode: JSONContains},
			{Key: "title", Column: "title", Mode: ContainsSubstring},
		},
		Required: []string{"title", "description"},
		Ordering: []OrderClause{{Column: UpdatedAtColumn, Desc: true}},
		Checks: []*Check{
			{
				Field:      "progress",
				Expression: `"progress" in record && record.progress != nil && (record.progress < 0 || record.progress > 100)`,
				Message:    "progress must be between 0 and 100",
			},
			{
				Field:      "endDate",
				Expression: `"startDate" in record && "endDate" in record && record.startDate != nil && record.endDate != nil && record.endDate < record.startDate`,
				Message:    "endDate must not be before startDate",
			},
		},
	}
}

func FileResource() *Resource {
	return &Resource{
		Name:       Files,
		Label:      "File",
		Table:      "research_files",
		OwnerField: ownerColumn,
		OwnerKey:   ownerKey,
		Fields: []Field{
			{Key: "name", Column: "name", Type: Scalar},
			{Key: "type", Column: "type", Type: Scalar},
			{Key: "size", Column: "size", Type: Scalar, Kind: KindInt},
			{Key: "url", Column: "url", Type: Scalar},
			{Key: "projectId", Column: "project_id", Type: Scalar},
			{Key: "metadata", Column: "metadata", Type: Object},
			{Key: "isPrivate", Column: "is_private", Type: Scalar, Kind: KindBool, Default: false},
		},
		Filters: []Filter{
			{Key: "type", Column: "type", Mode: ContainsSubstring},
			{Key: "projectId", Column: "project_id", Mode: Equals},
			{Key: "name", Column: "name", Mode: ContainsSubstring},
		},
		Required: []string{"name", "type", "size", "url"},
		Ordering: []OrderClause{{Column: CreatedAtColumn, Desc: true}},
		Checks: []*Check{
			{Field: "size", Expression: `"size" in record && record.size != nil && record.size < 0`, Message: "size must not be negative"},
		},
	}
}

func TimelineResource() *Resource {
	return &Resource{
		Name:       Timeline,
		Label:      "Timeline event",
		Table:      "timeline_events",
		OwnerField: ownerColumn,
		OwnerKey:   ownerKey,
		Fields: []Field{
			{Key: "projectId", Column: "project_id", Type: Scalar, CreateOnly: true},
			{Key: "title", Column: "title", Type: Scalar},
			{Key: "description", Column: "description", Type: Scalar},
			{Key: "type", Column: "type", Type: Scalar},
			{Key: "eventDate", Column: "event_date", Type: Scalar, Kind: KindDate},
			{Key: "completed", Column: "completed", Type: Scalar, Kind: KindBool, Default: false},
			{Key: "priority", Column: "priority", Type: Scalar, Default: "medium"},
		},
		Filters: []Filter{
			{Key: "projectId", Column: "project_id", Mode: Equals},
			{Key: "type", Column: "type", Mode: Equals},
			{Key: "completed", Column: "completed", Mode: Equals},
			{Key: "priority", Column: "priority", Mode: Equals},
		},
		Required: []string{"title", "type", "eventDate"},
		Ordering: []OrderClause{{Column: "event_date"}},
	}
}

// ProfileResource describes a researcher's public profile. Topic, method and
// specialization lists are stored as JSON arrays.
func ProfileResource() *Resource {
	return &Resource{
		Name:       Profiles,
		Label:      "Profile",
		Table:      "user_profiles",
		OwnerField: ownerColumn,
		OwnerKey:   ownerKey,
		Fields: []Field{
			{Key: "name", Column: "name", Type: Scalar},
			{Key: "email", Column: "email", Type: Scalar},
			{Key: "title", Column: "title", Type: Scalar},
			{Key: "institution", Column: "institution", Type: Scalar},
			{Key: "department", Column: "department", Type: Scalar},
			{Key: "bio", Column: "bio", Type: Scalar},
			{Key: "avatar", Column: "avatar", Type: Scalar},
			{Key: "degree", Column: "degree", Type: Scalar},
			{Key: "field", Column: "field", Type: Scalar},
			{Key: "advisor", Column: "advisor", Type: Scalar},
			{Key: "yearStarted", Column: "year_started", Type: Scalar},
			{Key: "orcid", Column: "orcid", Type: Scalar},
			{Key: "googleScholar", Column: "google_scholar", Type: Scalar},
			{Key: "researchTopics", Column: "research_topics", Type: Array},
			{Key: "methodologies", Column: "methodologies", Type: Array},
			{Key: "specializations", Column: "specializations", Type: Array},
			{Key: "profileVisibility", Column: "profile_visibility", Type: Scalar, Default: "public"},
			{Key: "allowMessages", Column: "allow_messages", Type: Scalar, Kind: KindBool, Default: true},
			{Key: "allowCollaboration", Column: "allow_collaboration", Type: Scalar, Kind: KindBool, Default: true},
			{Key: "emailNotifications", Column: "email_notifications", Type: Scalar, Kind: KindBool, Default: true},
			{Key: "researchUpdates", Column: "research_updates", Type: Scalar, Kind: KindBool, Default: true},
		},
		Filters: []Filter{
			{Key: "profileVisibility", Column: "profile_visibility", Mode: Equals},
			{Key: "institution", Column: "institution", Mode: ContainsSubstring},
			{Key: "researchTopics", Column: "research_topics", Mode: JSONContains},
			{Key: "methodologies", Column: "methodologies", Mode: JSONContains},
		},
		Required: []string{"name", "email"},
		Ordering: []OrderClause{{Column: UpdatedAtColumn, Desc: true}},
	}
}
