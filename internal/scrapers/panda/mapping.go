package panda

import (
	"encoding/json"
	"strconv"
	"time"
)

// rawInstant is the portal's {epochSecond, nano} timestamp.
type rawInstant struct {
	EpochSecond int64 `json:"epochSecond"`
	Nano        int64 `json:"nano"`
}

func (i rawInstant) time() time.Time {
	return time.Unix(i.EpochSecond, i.Nano)
}

// flexString accepts a json string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type rawAttachment struct {
	Name string     `json:"name"`
	Ref  string     `json:"ref"`
	Size flexString `json:"size"`
	Type string     `json:"type"`
	Url  string     `json:"url"`
}

type rawAssignment struct {
	Access              string          `json:"access"`
	AllPurposeItemText  string          `json:"allPurposeItemText"`
	AllowPeerAssessment bool            `json:"allowPeerAssessment"`
	AllowResubmission   bool            `json:"allowResubmission"`
	AnonymousGrading    bool            `json:"anonymousGrading"`
	Attachments         []rawAttachment `json:"attachments"`
	Author              string          `json:"author"`
	AuthorLastModified  string          `json:"authorLastModified"`
	CloseTime           *rawInstant     `json:"closeTime"`
	CloseTimeString     string          `json:"closeTimeString"`
	Context             string          `json:"context"`
	Creator             string          `json:"creator"`
	Draft               bool            `json:"draft"`
	DropDeadTime        *rawInstant     `json:"dropDeadTime"`
	DropDeadTimeString  string          `json:"dropDeadTimeString"`
	DueTime             *rawInstant     `json:"dueTime"`
	DueTimeString       string          `json:"dueTimeString"`
	GradeScale          string          `json:"gradeScale"`
	GradeScaleMaxPoints flexString      `json:"gradeScaleMaxPoints"`
	GradebookItemId     flexString      `json:"gradebookItemId"`
	GradebookItemName   string          `json:"gradebookItemName"`
	Id                  string          `json:"id"`
	Instructions        string          `json:"instructions"`
	LtiGradableLaunch   string          `json:"ltiGradableLaunch"`
	MaxGradePoint       flexString      `json:"maxGradePoint"`
	ModelAnswerText     string          `json:"modelAnswerText"`
	OpenTime            *rawInstant     `json:"openTime"`
	OpenTimeString      string          `json:"openTimeString"`
	Position            int             `json:"position"`
	PrivateNoteText     string          `json:"privateNoteText"`
	Section             string          `json:"section"`
	Status              string          `json:"status"`
	SubmissionType      string          `json:"submissionType"`
	TimeCreated         *rawInstant     `json:"timeCreated"`
	TimeLastModified    *rawInstant     `json:"timeLastModified"`
	Title               string          `json:"title"`
	EntityReference     string          `json:"entityReference"`
	EntityURL           string          `json:"entityURL"`
	EntityId            string          `json:"entityId"`
	EntityTitle         string          `json:"entityTitle"`

	Content     json.RawMessage `json:"content"`
	Groups      json.RawMessage `json:"groups"`
	Submissions json.RawMessage `json:"submissions"`
	Properties  json.RawMessage `json:"properties"`
}

type rawSite struct {
	ActiveEdit           bool     `json:"activeEdit"`
	ContactEmail         string   `json:"contactEmail"`
	ContactName          string   `json:"contactName"`
	CreatedDate          *int64   `json:"createdDate"`
	CustomPageOrdered    bool     `json:"customPageOrdered"`
	Description          string   `json:"description"`
	Empty                bool     `json:"empty"`
	HtmlDescription      string   `json:"htmlDescription"`
	HtmlShortDescription string   `json:"htmlShortDescription"`
	IconUrl              string   `json:"iconUrl"`
	IconUrlFull          string   `json:"iconUrlFull"`
	Id                   string   `json:"id"`
	InfoUrl              string   `json:"infoUrl"`
	InfoUrlFull          string   `json:"infoUrlFull"`
	Joinable             bool     `json:"joinable"`
	JoinerRole           string   `json:"joinerRole"`
	LastModified         int64    `json:"lastModified"`
	MaintainRole         string   `json:"maintainRole"`
	ModifiedDate         *int64   `json:"modifiedDate"`
	Owner                string   `json:"owner"`
	ProviderGroupId      string   `json:"providerGroupId"`
	PubView              bool     `json:"pubView"`
	Published            bool     `json:"published"`
	Reference            string   `json:"reference"`
	ShortDescription     string   `json:"shortDescription"`
	Skin                 string   `json:"skin"`
	SoftlyDeleted        bool     `json:"softlyDeleted"`
	SoftlyDeletedDate    *int64   `json:"softlyDeletedDate"`
	Title                string   `json:"title"`
	Type                 string   `json:"type"`
	UserRoles            []string `json:"userRoles"`

	Props          json.RawMessage `json:"props"`
	RealmLock      json.RawMessage `json:"realmLock"`
	RealmLocks     json.RawMessage `json:"realmLocks"`
	SiteGroups     json.RawMessage `json:"siteGroups"`
	SiteGroupsList json.RawMessage `json:"siteGroupsList"`
	SiteOwner      json.RawMessage `json:"siteOwner"`
	SitePages      json.RawMessage `json:"sitePages"`
}

// opaque drops json null so that absent and null fields look the same.
func opaque(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func millis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}

func mapAttachment(raw rawAttachment) Attachment {
	return Attachment{
		Name: raw.Name,
		Ref:  raw.Ref,
		Size: string(raw.Size),
		Type: raw.Type,
		Url:  raw.Url,
	}
}

// mapAssignment converts a raw record into an Assignment, the Site back
// reference is left nil.
func mapAssignment(raw rawAssignment) (Assignment, error) {
	instants := []struct {
		field string
		value *rawInstant
	}{
		{"closeTime", raw.CloseTime},
		{"dropDeadTime", raw.DropDeadTime},
		{"dueTime", raw.DueTime},
		{"openTime", raw.OpenTime},
		{"timeCreated", raw.TimeCreated},
		{"timeLastModified", raw.TimeLastModified},
	}
	for _, instant := range instants {
		if instant.value == nil {
			return Assignment{}, &MappingError{Entity: "assignment", Id: raw.Id, Field: instant.field}
		}
	}

	attachments := make([]Attachment, len(raw.Attachments))
	for i, a := range raw.Attachments {
		attachments[i] = mapAttachment(a)
	}

	// a non numeric gradebook id is meaningless downstream
	gradebookItemId, _ := strconv.ParseInt(string(raw.GradebookItemId), 10, 64)

	return Assignment{
		Access:              raw.Access,
		AllPurposeItemText:  raw.AllPurposeItemText,
		AllowPeerAssessment: raw.AllowPeerAssessment,
		AllowResubmission:   raw.AllowResubmission,
		AnonymousGrading:    raw.AnonymousGrading,
		Attachments:         attachments,
		Author:              raw.Author,
		AuthorLastModified:  raw.AuthorLastModified,
		CloseTime:           raw.CloseTime.time(),
		CloseTimeString:     raw.CloseTimeString,
		Context:             raw.Context,
		Creator:             raw.Creator,
		Draft:               raw.Draft,
		DropDeadTime:        raw.DropDeadTime.time(),
		DropDeadTimeString:  raw.DropDeadTimeString,
		DueTime:             raw.DueTime.time(),
		DueTimeString:       raw.DueTimeString,
		GradeScale:          raw.GradeScale,
		GradeScaleMaxPoints: string(raw.GradeScaleMaxPoints),
		GradebookItemId:     gradebookItemId,
		GradebookItemName:   raw.GradebookItemName,
		Id:                  raw.Id,
		Instructions:        raw.Instructions,
		LtiGradableLaunch:   raw.LtiGradableLaunch,
		MaxGradePoint:       string(raw.MaxGradePoint),
		ModelAnswerText:     raw.ModelAnswerText,
		OpenTime:            raw.OpenTime.time(),
		OpenTimeString:      raw.OpenTimeString,
		Position:            raw.Position,
		PrivateNoteText:     raw.PrivateNoteText,
		Section:             raw.Section,
		Status:              raw.Status,
		SubmissionType:      raw.SubmissionType,
		TimeCreated:         raw.TimeCreated.time(),
		TimeLastModified:    raw.TimeLastModified.time(),
		Title:               raw.Title,
		EntityReference:     raw.EntityReference,
		EntityURL:           raw.EntityURL,
		EntityId:            raw.EntityId,
		EntityTitle:         raw.EntityTitle,
		Content:             opaque(raw.Content),
		Groups:              opaque(raw.Groups),
		Submissions:         opaque(raw.Submissions),
		Properties:          opaque(raw.Properties),
	}, nil
}

func mapSite(raw rawSite) (Site, error) {
	if raw.Id == "" {
		return Site{}, &MappingError{Entity: "site", Id: raw.Title, Field: "id"}
	}

	var softlyDeletedDate *time.Time
	if raw.SoftlyDeletedDate != nil {
		t := time.UnixMilli(*raw.SoftlyDeletedDate)
		softlyDeletedDate = &t
	}

	return Site{
		ActiveEdit:           raw.ActiveEdit,
		ContactEmail:         raw.ContactEmail,
		ContactName:          raw.ContactName,
		CreatedDate:          millis(raw.CreatedDate),
		CustomPageOrdered:    raw.CustomPageOrdered,
		Description:          raw.Description,
		Empty:                raw.Empty,
		HtmlDescription:      raw.HtmlDescription,
		HtmlShortDescription: raw.HtmlShortDescription,
		IconUrl:              raw.IconUrl,
		IconUrlFull:          raw.IconUrlFull,
		Id:                   raw.Id,
		InfoUrl:              raw.InfoUrl,
		InfoUrlFull:          raw.InfoUrlFull,
		Joinable:             raw.Joinable,
		JoinerRole:           raw.JoinerRole,
		LastModified:         raw.LastModified,
		MaintainRole:         raw.MaintainRole,
		ModifiedDate:         millis(raw.ModifiedDate),
		Owner:                raw.Owner,
		ProviderGroupId:      raw.ProviderGroupId,
		PubView:              raw.PubView,
		Published:            raw.Published,
		Reference:            raw.Reference,
		ShortDescription:     raw.ShortDescription,
		Skin:                 raw.Skin,
		SoftlyDeleted:        raw.SoftlyDeleted,
		SoftlyDeletedDate:    softlyDeletedDate,
		Title:                raw.Title,
		Type:                 raw.Type,
		UserRoles:            raw.UserRoles,
		Props:                opaque(raw.Props),
		RealmLock:            opaque(raw.RealmLock),
		RealmLocks:           opaque(raw.RealmLocks),
		SiteGroups:           opaque(raw.SiteGroups),
		SiteGroupsList:       opaque(raw.SiteGroupsList),
		SiteOwner:            opaque(raw.SiteOwner),
		SitePages:            opaque(raw.SitePages),
	}, nil
}
