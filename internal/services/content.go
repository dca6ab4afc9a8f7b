package services

import (
	"context"
	"errors"
	"strings"

	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

const (
	maxHeroTitleLength   = 200
	maxSubtitleLength    = 300
	maxDescriptionLength = 5000
	maxStatementLength   = 1000
)

// ContentRepository defines persistence operations for the page singletons.
type ContentRepository interface {
	GetHome(ctx context.Context) (types.HomeContent, error)
	UpsertHome(ctx context.Context, content types.HomeContent) (types.HomeContent, error)
	GetAbout(ctx context.Context) (types.AboutContent, error)
	UpsertAbout(ctx context.Context, content types.AboutContent) (types.AboutContent, error)
}

// ContentService encapsulates home/about page content use-cases.
type ContentService struct {
	repo ContentRepository
}

func NewContentService(repo ContentRepository) *ContentService {
	return &ContentService{repo: repo}
}

// GetHome returns the home page content, falling back to an empty default
// before the first edit has been saved.
func (s *ContentService) GetHome(ctx context.Context) (types.HomeContent, error) {
	content, err := s.repo.GetHome(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return types.HomeContent{HeroTitle: "Welcome"}, nil
	}
	return content, err
}

func (s *ContentService) UpdateHome(ctx context.Context, content types.HomeContent) (types.HomeContent, error) {
	if err := validateHome(content); err != nil {
		return types.HomeContent{}, err
	}
	return s.repo.UpsertHome(ctx, content)
}

// GetAbout returns the about page content, falling back to an empty default
// before the first edit has been saved.
func (s *ContentService) GetAbout(ctx context.Context) (types.AboutContent, error) {
	content, err := s.repo.GetAbout(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return types.AboutContent{Title: "About Us"}, nil
	}
	return content, err
}

func (s *ContentService) UpdateAbout(ctx context.Context, content types.AboutContent) (types.AboutContent, error) {
	if err := validateAbout(content); err != nil {
		return types.AboutContent{}, err
	}
	return s.repo.UpsertAbout(ctx, content)
}

func validateHome(content types.HomeContent) error {
	switch {
	case strings.TrimSpace(content.HeroTitle) == "":
		return validationError("hero title is required")
	case len(content.HeroTitle) > maxHeroTitleLength:
		return validationError("hero title cannot exceed 200 characters")
	case len(content.HeroSubtitle) > maxSubtitleLength:
		return validationError("hero subtitle cannot exceed 300 characters")
	case len(content.HeroDescription) > maxStatementLength:
		return validationError("hero description cannot exceed 1000 characters")
	}
	for _, testimonial := range content.Testimonials {
		if strings.TrimSpace(testimonial.Name) == "" || strings.TrimSpace(testimonial.Text) == "" {
			return validationError("testimonials require a name and text")
		}
		if testimonial.Rating < 1 || testimonial.Rating > 5 {
			return validationError("testimonial rating must be between 1 and 5")
		}
	}
	for _, section := range content.Sections {
		if strings.TrimSpace(section.Title) == "" || strings.TrimSpace(section.Content) == "" {
			return validationError("sections require a title and content")
		}
	}
	return nil
}

func validateAbout(content types.AboutContent) error {
	switch {
	case strings.TrimSpace(content.Title) == "":
		return validationError("title is required")
	case len(content.Title) > maxHeroTitleLength:
		return validationError("title cannot exceed 200 characters")
	case len(content.Subtitle) > maxSubtitleLength:
		return validationError("subtitle cannot exceed 300 characters")
	case strings.TrimSpace(content.Description) == "":
		return validationError("description is required")
	case len(content.Description) > maxDescriptionLength:
		return validationError("description cannot exceed 5000 characters")
	case len(content.Mission) > maxStatementLength:
		return validationError("mission cannot exceed 1000 characters")
	case len(content.Vision) > maxStatementLength:
		return validationError("vision cannot exceed 1000 characters")
	}
	for _, member := range content.TeamMembers {
		if strings.TrimSpace(member.Name) == "" || strings.TrimSpace(member.Position) == "" {
			return validationError("team members require a name and position")
		}
	}
	return nil
}
