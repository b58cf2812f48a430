package model

// JobRequirements is the requirements block of a job posting.
type JobRequirements struct {
	RequiredSkills        []string `json:"required_skills"`
	PreferredSkills       []string `json:"preferred_skills"`
	ExperienceYears       *int     `json:"experience_years,omitempty" validate:"omitempty,gte=0"`
	ExperienceDescription string   `json:"experience_description,omitempty"`
	EducationRequirements []string `json:"education_requirements"`
	Certifications        []string `json:"certifications"`
	SoftSkills            []string `json:"soft_skills"`
	Keywords              []string `json:"keywords"`
}

// Job is the structured form of a job posting.
type Job struct {
	Title            string          `json:"title" validate:"required"`
	Company          string          `json:"company,omitempty"`
	Location         string          `json:"location,omitempty"`
	Description      string          `json:"description"`
	Requirements     JobRequirements `json:"requirements"`
	Responsibilities []string        `json:"responsibilities"`
	Benefits         []string        `json:"benefits"`
	RawText          string          `json:"raw_text"`
}

// Keywords returns required skills followed by extracted keywords, the list
// handed to the tailoring stage.
func (j *Job) Keywords() []string {
	out := make([]string, 0, len(j.Requirements.RequiredSkills)+len(j.Requirements.Keywords))
	out = append(out, j.Requirements.RequiredSkills...)
	return append(out, j.Requirements.Keywords...)
}
