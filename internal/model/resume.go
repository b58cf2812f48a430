// Package model holds the records exchanged between pipeline stages.
package model

import "slices"

// ContactInfo is the candidate's contact block.
type ContactInfo struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Experience is one employment entry. An empty EndDate means the position is current.
type Experience struct {
	Company      string   `json:"company" validate:"required"`
	Title        string   `json:"title" validate:"required"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date,omitempty"`
	Location     string   `json:"location,omitempty"`
	Bullets      []string `json:"bullets"`
	OriginalText string   `json:"original_text"`
}

// IsCurrent reports whether the position has no end date.
func (e Experience) IsCurrent() bool {
	return e.EndDate == ""
}

// DateRange renders "start - end", using "Present" for current positions.
func (e Experience) DateRange() string {
	end := e.EndDate
	if e.IsCurrent() {
		end = "Present"
	}
	return e.StartDate + " - " + end
}

type Education struct {
	Institution    string `json:"institution" validate:"required"`
	Degree         string `json:"degree"`
	Field          string `json:"field,omitempty"`
	GraduationDate string `json:"graduation_date,omitempty"`
	GPA            string `json:"gpa,omitempty"`
	Honors         string `json:"honors,omitempty"`
}

type Project struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
}

// Resume is the structured form of the candidate's original resume.
type Resume struct {
	Contact        ContactInfo  `json:"contact" validate:"required"`
	Summary        string       `json:"summary,omitempty"`
	Experiences    []Experience `json:"experiences" validate:"dive"`
	Education      []Education  `json:"education" validate:"dive"`
	Skills         []string     `json:"skills"`
	Projects       []Project    `json:"projects" validate:"dive"`
	Certifications []string     `json:"certifications"`
	Languages      []string     `json:"languages"`
	RawText        string       `json:"raw_text"`
}

// TailoredResume has the same shape as Resume minus the raw text, plus the change log.
type TailoredResume struct {
	Contact        ContactInfo  `json:"contact"`
	Summary        string       `json:"summary,omitempty"`
	Experiences    []Experience `json:"experiences"`
	Education      []Education  `json:"education"`
	Skills         []string     `json:"skills"`
	Projects       []Project    `json:"projects"`
	Certifications []string     `json:"certifications"`
	Languages      []string     `json:"languages"`
	Changes        []Change     `json:"changes"`
}

// Change records one modification made while tailoring.
type Change struct {
	Section  string `json:"section"`
	Original string `json:"original"`
	Modified string `json:"modified"`
	Reason   string `json:"reason"`
}

// Document is the renderable view shared by original and tailored resumes.
type Document struct {
	Contact        ContactInfo
	Summary        string
	Experiences    []Experience
	Education      []Education
	Skills         []string
	Projects       []Project
	Certifications []string
}

func (r *Resume) Document() Document {
	return Document{
		Contact:        r.Contact,
		Summary:        r.Summary,
		Experiences:    r.Experiences,
		Education:      r.Education,
		Skills:         r.Skills,
		Projects:       r.Projects,
		Certifications: r.Certifications,
	}
}

func (t *TailoredResume) Document() Document {
	return Document{
		Contact:        t.Contact,
		Summary:        t.Summary,
		Experiences:    t.Experiences,
		Education:      t.Education,
		Skills:         t.Skills,
		Projects:       t.Projects,
		Certifications: t.Certifications,
	}
}

// CloneEducation returns a deep copy so tailored output never aliases the original.
func CloneEducation(in []Education) []Education {
	return slices.Clone(in)
}

func CloneProjects(in []Project) []Project {
	if in == nil {
		return nil
	}
	out := make([]Project, len(in))
	for i, p := range in {
		p.Technologies = slices.Clone(p.Technologies)
		out[i] = p
	}
	return out
}

func CloneExperience(e Experience) Experience {
	e.Bullets = slices.Clone(e.Bullets)
	return e
}
