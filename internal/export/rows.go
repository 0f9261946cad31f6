// Package export renders census populations into the SSDA903 return shapes:
// one CSV per table, a nested XML document and a JSON dump.
package export

import (
	"strconv"
	"time"

	"carecensus/pkg/domain"
)

const dateLayout = "02/01/2006"

func date(t time.Time) string { return t.Format(dateLayout) }

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return date(*t)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// HeaderRow is one row of the header table.
type HeaderRow struct {
	Child     int
	Sex       int
	DOB       time.Time
	Ethnic    string
	UPN       string
	Mother    bool
	MotherDOB *time.Time
}

// Record renders the row in column order.
func (r HeaderRow) Record() []string {
	mother := ""
	if r.Mother {
		mother = "1"
	}
	return []string{strconv.Itoa(r.Child), strconv.Itoa(r.Sex), date(r.DOB), r.Ethnic, r.UPN, mother, optDate(r.MotherDOB)}
}

// EpisodeRow is one row of the episodes table.
type EpisodeRow struct {
	Child             int
	Start             time.Time
	RNE               string
	LegalStatus       string
	CIN               string
	Place             string
	PlaceProvider     string
	End               *time.Time
	ReasonEnd         *string
	ReasonPlaceChange *string
	HomePostcode      string
	PlacePostcode     string
	URN               string
}

// Record renders the row in column order.
func (r EpisodeRow) Record() []string {
	return []string{
		strconv.Itoa(r.Child), date(r.Start), r.RNE, r.LegalStatus, r.CIN, r.Place, r.PlaceProvider,
		optDate(r.End), optString(r.ReasonEnd), optString(r.ReasonPlaceChange),
		r.HomePostcode, r.PlacePostcode, r.URN,
	}
}

// UASCRow is one row of the uasc table.
type UASCRow struct {
	Child  int
	Sex    int
	DOB    time.Time
	Ceased time.Time
}

// Record renders the row in column order.
func (r UASCRow) Record() []string {
	return []string{strconv.Itoa(r.Child), strconv.Itoa(r.Sex), date(r.DOB), date(r.Ceased)}
}

// ReviewRow is one row of the reviews table.
type ReviewRow struct {
	Child int
	DOB   time.Time
	Date  time.Time
	Code  string
}

// Record renders the row in column order.
func (r ReviewRow) Record() []string {
	return []string{strconv.Itoa(r.Child), date(r.DOB), date(r.Date), r.Code}
}

// OC2Row is one row of the outcomes table.
type OC2Row struct {
	Child    int
	DOB      time.Time
	Outcomes domain.OutcomesData
}

// Record renders the row in column order.
func (r OC2Row) Record() []string {
	score := ""
	if r.Outcomes.SDQScore != nil {
		score = strconv.Itoa(*r.Outcomes.SDQScore)
	}
	o := r.Outcomes
	return []string{
		strconv.Itoa(r.Child), date(r.DOB), score, optString(o.SDQReason),
		flag(o.Convicted), flag(o.HealthCheck), flag(o.Immunisations), flag(o.TeethCheck),
		flag(o.HealthAssessment), flag(o.SubstanceMisuse), flag(o.InterventionReceived), flag(o.InterventionOffered),
	}
}

// OC3Row is one row of the care leavers table.
type OC3Row struct {
	Child         int
	DOB           time.Time
	InTouch       string
	Activity      string
	Accommodation string
}

// Record renders the row in column order.
func (r OC3Row) Record() []string {
	return []string{strconv.Itoa(r.Child), date(r.DOB), r.InTouch, r.Activity, r.Accommodation}
}

// AD1Row is one row of the adoption table. The decision and matching dates
// both take the placement start.
type AD1Row struct {
	Child                int
	DOB                  time.Time
	DateInterest         time.Time
	DateMatch            time.Time
	FosterCare           bool
	NumberOfAdopters     string
	SexOfAdopter         string
	LegalStatusOfAdopter string
}

// Record renders the row in column order.
func (r AD1Row) Record() []string {
	return []string{
		strconv.Itoa(r.Child), date(r.DOB), date(r.DateInterest), date(r.DateMatch), flag(r.FosterCare),
		r.NumberOfAdopters, r.SexOfAdopter, r.LegalStatusOfAdopter,
	}
}

// PlacedForAdoptionRow is one row of the placed_for_adoption table.
type PlacedForAdoptionRow struct {
	Child        int
	DOB          time.Time
	Placed       time.Time
	Ceased       *time.Time
	ReasonCeased *string
}

// Record renders the row in column order.
func (r PlacedForAdoptionRow) Record() []string {
	return []string{strconv.Itoa(r.Child), date(r.DOB), date(r.Placed), optDate(r.Ceased), optString(r.ReasonCeased)}
}

// PreviousPermanenceRow is one row of the previous_permanence table. The
// local authority column is always blank.
type PreviousPermanenceRow struct {
	Child    int
	DOB      time.Time
	Previous string
	Date     *time.Time
}

// Record renders the row in column order.
func (r PreviousPermanenceRow) Record() []string {
	return []string{strconv.Itoa(r.Child), date(r.DOB), r.Previous, "", optDate(r.Date)}
}

// Recorder is implemented by every row type.
type Recorder interface {
	Record() []string
}

// Table is a named set of rows with a fixed column order.
type Table struct {
	Name    string
	Columns []string
	Rows    []Recorder
}

// Table names, in output order.
const (
	TableHeader             = "header"
	TableEpisodes           = "episodes"
	TableUASC               = "uasc"
	TableReviews            = "reviews"
	TableOC2                = "oc2"
	TableOC3                = "oc3"
	TableAD1                = "ad1"
	TablePlacedForAdoption  = "placed_for_adoption"
	TablePreviousPermanence = "previous_permanence"
)

var columns = map[string][]string{
	TableHeader:   {"CHILD", "SEX", "DOB", "ETHNIC", "UPN", "MOTHER", "MC_DOB"},
	TableEpisodes: {"CHILD", "DECOM", "RNE", "LS", "CIN", "PLACE", "PLACE_PROVIDER", "DEC", "REC", "REASON_PLACE_CHANGE", "HOME_POST", "PL_POST", "URN"},
	TableUASC:     {"CHILD", "SEX", "DOB", "DUC"},
	TableReviews:  {"CHILD", "DOB", "REVIEW", "REVIEW_CODE"},
	TableOC2: {"CHILD", "DOB", "SDQ_SCORE", "SDQ_REASON", "CONVICTED", "HEALTH_CHECK", "IMMUNISATIONS", "TEETH_CHECK",
		"HEALTH_ASSESSMENT", "SUBSTANCE_MISUSE", "INTERVENTION_RECEIVED", "INTERVENTION_OFFERED"},
	TableOC3:                {"CHILD", "DOB", "IN_TOUCH", "ACTIV", "ACCOM"},
	TableAD1:                {"CHILD", "DOB", "DATE_INT", "DATE_MATCH", "FOSTER_CARE", "NB_ADOPTR", "SEX_ADOPTR", "LS_ADOPTR"},
	TablePlacedForAdoption:  {"CHILD", "DOB", "DATE_PLACED", "DATE_PLACED_CEASED", "REASON_PLACED_CEASED"},
	TablePreviousPermanence: {"CHILD", "DOB", "PREV_PERM", "LA_PERM", "DATE_PERM"},
}

var tableOrder = []string{
	TableHeader, TableEpisodes, TableUASC, TableReviews, TableOC2, TableOC3,
	TableAD1, TablePlacedForAdoption, TablePreviousPermanence,
}

// Tables maps children onto the nine return tables. Every child appears in
// header and previous_permanence; the other tables only carry rows for the
// children that have the corresponding facts.
func Tables(children []domain.Child) []Table {
	rows := make(map[string][]Recorder, len(tableOrder))
	for _, c := range children {
		rows[TableHeader] = append(rows[TableHeader], HeaderRow{
			Child: c.ID, Sex: c.Sex, DOB: c.DateOfBirth, Ethnic: c.Ethnicity, UPN: c.UPN,
			Mother: c.IsMother(), MotherDOB: c.MotherChildDOB,
		})
		for _, e := range c.Episodes {
			rows[TableEpisodes] = append(rows[TableEpisodes], EpisodeRow{
				Child: c.ID, Start: e.StartDate, RNE: e.ReasonForNewEpisode, LegalStatus: e.LegalStatus, CIN: e.CIN,
				Place: e.Placement.Type, PlaceProvider: e.Placement.Provider, End: e.EndDate,
				ReasonEnd: e.ReasonEnd, ReasonPlaceChange: e.ReasonPlaceChange,
				HomePostcode: e.Placement.HomePostcode, PlacePostcode: e.Placement.PlacePostcode, URN: e.Placement.URN,
			})
		}
		if c.UASCCeased != nil {
			rows[TableUASC] = append(rows[TableUASC], UASCRow{Child: c.ID, Sex: c.Sex, DOB: c.DateOfBirth, Ceased: *c.UASCCeased})
		}
		for _, r := range c.Reviews {
			rows[TableReviews] = append(rows[TableReviews], ReviewRow{Child: c.ID, DOB: c.DateOfBirth, Date: r.Date, Code: r.Code})
		}
		if c.Outcomes != nil {
			rows[TableOC2] = append(rows[TableOC2], OC2Row{Child: c.ID, DOB: c.DateOfBirth, Outcomes: *c.Outcomes})
		}
		if lc := c.LeavingCare; lc != nil {
			rows[TableOC3] = append(rows[TableOC3], OC3Row{
				Child: c.ID, DOB: c.DateOfBirth, InTouch: lc.InTouch, Activity: lc.Activity, Accommodation: lc.Accommodation,
			})
		}
		if a := c.Adoption; a != nil {
			rows[TableAD1] = append(rows[TableAD1], AD1Row{
				Child: c.ID, DOB: c.DateOfBirth, DateInterest: a.StartDate, DateMatch: a.StartDate, FosterCare: a.FosterCare,
				NumberOfAdopters: a.NumberOfAdopters, SexOfAdopter: a.SexOfAdopter, LegalStatusOfAdopter: a.LegalStatusOfAdopter,
			})
			rows[TablePlacedForAdoption] = append(rows[TablePlacedForAdoption], PlacedForAdoptionRow{
				Child: c.ID, DOB: c.DateOfBirth, Placed: a.StartDate, Ceased: a.EndDate, ReasonCeased: a.ReasonCeased,
			})
		}
		rows[TablePreviousPermanence] = append(rows[TablePreviousPermanence], PreviousPermanenceRow{
			Child: c.ID, DOB: c.DateOfBirth, Previous: c.PreviousPermanent, Date: c.PreviousPermanentDate,
		})
	}
	out := make([]Table, 0, len(tableOrder))
	for _, name := range tableOrder {
		out = append(out, Table{Name: name, Columns: columns[name], Rows: rows[name]})
	}
	return out
}
