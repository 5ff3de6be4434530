package panda

import (
	"encoding/json"
	"time"
)

// Attachment is a file attached to an assignment.
type Attachment struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
	Size string `json:"size"`
	Type string `json:"type"`
	Url  string `json:"url"`
}

// Assignment mirrors an entry of the portal's assignment collection.
//
// Site is nil until the owning site has been looked up through Context.
type Assignment struct {
	Access              string       `json:"access"`
	AllPurposeItemText  string       `json:"allPurposeItemText"`
	AllowPeerAssessment bool         `json:"allowPeerAssessment"`
	AllowResubmission   bool         `json:"allowResubmission"`
	AnonymousGrading    bool         `json:"anonymousGrading"`
	Attachments         []Attachment `json:"attachments"`
	Author              string       `json:"author"`
	AuthorLastModified  string       `json:"authorLastModified"`
	CloseTime           time.Time    `json:"closeTime"`
	CloseTimeString     string       `json:"closeTimeString"`
	Context             string       `json:"context"`
	Creator             string       `json:"creator"`
	Draft               bool         `json:"draft"`
	DropDeadTime        time.Time    `json:"dropDeadTime"`
	DropDeadTimeString  string       `json:"dropDeadTimeString"`
	DueTime             time.Time    `json:"dueTime"`
	DueTimeString       string       `json:"dueTimeString"`
	GradeScale          string       `json:"gradeScale"`
	GradeScaleMaxPoints string       `json:"gradeScaleMaxPoints"`
	GradebookItemId     int64        `json:"gradebookItemId"`
	GradebookItemName   string       `json:"gradebookItemName"`
	Id                  string       `json:"id"`
	Instructions        string       `json:"instructions"`
	LtiGradableLaunch   string       `json:"ltiGradableLaunch"`
	MaxGradePoint       string       `json:"maxGradePoint"`
	ModelAnswerText     string       `json:"modelAnswerText"`
	OpenTime            time.Time    `json:"openTime"`
	OpenTimeString      string       `json:"openTimeString"`
	Position            int          `json:"position"`
	PrivateNoteText     string       `json:"privateNoteText"`
	Section             string       `json:"section"`
	Status              string       `json:"status"`
	SubmissionType      string       `json:"submissionType"`
	TimeCreated         time.Time    `json:"timeCreated"`
	TimeLastModified    time.Time    `json:"timeLastModified"`
	Title               string       `json:"title"`
	EntityReference     string       `json:"entityReference"`
	EntityURL           string       `json:"entityURL"`
	EntityId            string       `json:"entityId"`
	EntityTitle         string       `json:"entityTitle"`

	Content     json.RawMessage `json:"content,omitempty"`
	Groups      json.RawMessage `json:"groups,omitempty"`
	Submissions json.RawMessage `json:"submissions,omitempty"`
	Properties  json.RawMessage `json:"properties,omitempty"`

	Site *Site `json:"site,omitempty"`
}

// Site is a course or workspace on the portal.
type Site struct {
	ActiveEdit           bool       `json:"activeEdit"`
	ContactEmail         string     `json:"contactEmail"`
	ContactName          string     `json:"contactName"`
	CreatedDate          time.Time  `json:"createdDate"`
	CustomPageOrdered    bool       `json:"customPageOrdered"`
	Description          string     `json:"description"`
	Empty                bool       `json:"empty"`
	HtmlDescription      string     `json:"htmlDescription"`
	HtmlShortDescription string     `json:"htmlShortDescription"`
	IconUrl              string     `json:"iconUrl"`
	IconUrlFull          string     `json:"iconUrlFull"`
	Id                   string     `json:"id"`
	InfoUrl              string     `json:"infoUrl"`
	InfoUrlFull          string     `json:"infoUrlFull"`
	Joinable             bool       `json:"joinable"`
	JoinerRole           string     `json:"joinerRole"`
	LastModified         int64      `json:"lastModified"`
	MaintainRole         string     `json:"maintainRole"`
	ModifiedDate         time.Time  `json:"modifiedDate"`
	Owner                string     `json:"owner"`
	ProviderGroupId      string     `json:"providerGroupId"`
	PubView              bool       `json:"pubView"`
	Published            bool       `json:"published"`
	Reference            string     `json:"reference"`
	ShortDescription     string     `json:"shortDescription"`
	Skin                 string     `json:"skin"`
	SoftlyDeleted        bool       `json:"softlyDeleted"`
	SoftlyDeletedDate    *time.Time `json:"softlyDeletedDate"`
	Title                string     `json:"title"`
	Type                 string     `json:"type"`
	UserRoles            []string   `json:"userRoles"`

	Props          json.RawMessage `json:"props,omitempty"`
	RealmLock      json.RawMessage `json:"realmLock,omitempty"`
	RealmLocks     json.RawMessage `json:"realmLocks,omitempty"`
	SiteGroups     json.RawMessage `json:"siteGroups,omitempty"`
	SiteGroupsList json.RawMessage `json:"siteGroupsList,omitempty"`
	SiteOwner      json.RawMessage `json:"siteOwner,omitempty"`
	SitePages      json.RawMessage `json:"sitePages,omitempty"`
}
