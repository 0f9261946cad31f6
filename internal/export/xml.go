package export

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"carecensus/pkg/domain"
)

// Document is the EXPSSDA903 XML root.
type Document struct {
	XMLName  xml.Name   `xml:"EXPSSDA903"`
	Children []XMLChild `xml:"CHILD"`
}

// XMLChild nests the header and the episodes of one child.
type XMLChild struct {
	Header   XMLHeader    `xml:"HEADER"`
	Episodes []XMLEpisode `xml:"EPISODE"`
}

// XMLHeader carries demographics and reviews. Absent values are omitted.
type XMLHeader struct {
	ChildID   string      `xml:"CHILDID"`
	UPN       string      `xml:"UPN,omitempty"`
	Sex       string      `xml:"SEX"`
	DOB       string      `xml:"DOB"`
	Ethnic    string      `xml:"ETHNIC,omitempty"`
	UASC      string      `xml:"UASC,omitempty"`
	Reviews   []XMLReview `xml:"AREVIEW"`
	Mother    string      `xml:"MOTHER,omitempty"`
	MotherDOB string      `xml:"MC_DOB,omitempty"`
}

// XMLReview is one AREVIEW element.
type XMLReview struct {
	Date string `xml:"REVIEW"`
	Code string `xml:"REVIEW_CODE"`
}

// XMLEpisode is one EPISODE element.
type XMLEpisode struct {
	Start             string `xml:"DECOM"`
	RNE               string `xml:"RNE"`
	LegalStatus       string `xml:"LS"`
	CIN               string `xml:"CIN"`
	Place             string `xml:"PL"`
	PlacePostcode     string `xml:"PL_POST,omitempty"`
	HomePostcode      string `xml:"HOME_POST,omitempty"`
	URN               string `xml:"URN,omitempty"`
	PlaceProvider     string `xml:"PLACE_PROVIDER,omitempty"`
	End               string `xml:"DEC,omitempty"`
	ReasonEnd         string `xml:"REC,omitempty"`
	ReasonPlaceChange string `xml:"REASON_PLACE_CHANGE,omitempty"`
}

// NewDocument builds the XML document for children.
func NewDocument(children []domain.Child) Document {
	doc := Document{Children: make([]XMLChild, 0, len(children))}
	for _, c := range children {
		h := XMLHeader{
			ChildID:   strconv.Itoa(c.ID),
			UPN:       c.UPN,
			Sex:       strconv.Itoa(c.Sex),
			DOB:       date(c.DateOfBirth),
			Ethnic:    c.Ethnicity,
			MotherDOB: optDate(c.MotherChildDOB),
		}
		if c.IsUASC() {
			h.UASC = "1"
		}
		if c.IsMother() {
			h.Mother = "1"
		}
		for _, r := range c.Reviews {
			h.Reviews = append(h.Reviews, XMLReview{Date: date(r.Date), Code: r.Code})
		}
		xc := XMLChild{Header: h}
		for _, e := range c.Episodes {
			xc.Episodes = append(xc.Episodes, XMLEpisode{
				Start:             date(e.StartDate),
				RNE:               e.ReasonForNewEpisode,
				LegalStatus:       e.LegalStatus,
				CIN:               e.CIN,
				Place:             e.Placement.Type,
				PlacePostcode:     e.Placement.PlacePostcode,
				HomePostcode:      e.Placement.HomePostcode,
				URN:               e.Placement.URN,
				PlaceProvider:     e.Placement.Provider,
				End:               optDate(e.EndDate),
				ReasonEnd:         optString(e.ReasonEnd),
				ReasonPlaceChange: optString(e.ReasonPlaceChange),
			})
		}
		doc.Children = append(doc.Children, xc)
	}
	return doc
}

// WriteXML renders children as an indented EXPSSDA903 document with an XML
// declaration.
func WriteXML(children []domain.Child) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(buf)
	enc.Indent("", "  ")
	if err := enc.Encode(NewDocument(children)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
