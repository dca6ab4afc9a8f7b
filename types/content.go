package types

import "time"

// ContentSection is a titled block of editable page content.
type ContentSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
	Order   int    `json:"order"`
}

// Testimonial is a customer quote shown on the home page.
type Testimonial struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating,omitempty"`
	Image  string `json:"image,omitempty"`
}

// Stat is a label/value pair shown in stats sections.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// TeamMember is a person shown on the about page.
type TeamMember struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
}

// HomeContent is the editable content of the home page. A single row is
// stored; updates overwrite it in place.
type HomeContent struct {
	HeroTitle          string           `json:"hero_title"`
	HeroSubtitle       string           `json:"hero_subtitle,omitempty"`
	HeroDescription    string           `json:"hero_description,omitempty"`
	HeroImage          string           `json:"hero_image,omitempty"`
	HeroCTAText        string           `json:"hero_cta_text,omitempty"`
	HeroCTALink        string           `json:"hero_cta_link,omitempty"`
	FeaturedProperties []int            `json:"featured_properties,omitempty"`
	Sections           []ContentSection `json:"sections,omitempty"`
	Testimonials       []Testimonial    `json:"testimonials,omitempty"`
	Stats              []Stat           `json:"stats,omitempty"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// AboutContent is the editable content of the about page. A single row is
// stored; updates overwrite it in place.
type AboutContent struct {
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle,omitempty"`
	Description  string       `json:"description"`
	Mission      string       `json:"mission,omitempty"`
	Vision       string       `json:"vision,omitempty"`
	Values       []string     `json:"values,omitempty"`
	TeamMembers  []TeamMember `json:"team_members,omitempty"`
	CompanyStats []Stat       `json:"company_stats,omitempty"`
	Images       []string     `json:"images,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
