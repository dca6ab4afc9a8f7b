package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lebbnb/apiserver/internal/store"
	"github.com/lebbnb/apiserver/types"
)

type fakeContentRepo struct {
	home  *types.HomeContent
	about *types.AboutContent
}

func (r *fakeContentRepo) GetHome(_ context.Context) (types.HomeContent, error) {
	if r.home == nil {
		return types.HomeContent{}, store.ErrNotFound
	}
	return *r.home, nil
}

func (r *fakeContentRepo) UpsertHome(_ context.Context, content types.HomeContent) (types.HomeContent, error) {
	r.home = &content
	return content, nil
}

func (r *fakeContentRepo) GetAbout(_ context.Context) (types.AboutContent, error) {
	if r.about == nil {
		return types.AboutContent{}, store.ErrNotFound
	}
	return *r.about, nil
}

func (r *fakeContentRepo) UpsertAbout(_ context.Context, content types.AboutContent) (types.AboutContent, error) {
	r.about = &content
	return content, nil
}

func TestGetHomeFallsBackToDefault(t *testing.T) {
	service := NewContentService(&fakeContentRepo{})

	content, err := service.GetHome(context.Background())
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if content.HeroTitle == "" {
		t.Fatalf("expected a default hero title")
	}
}

func TestUpdateAndGetHome(t *testing.T) {
	service := NewContentService(&fakeContentRepo{})
	ctx := context.Background()

	saved, err := service.UpdateHome(ctx, types.HomeContent{
		HeroTitle:    "Stay by the river",
		HeroSubtitle: "Short lets in the old town",
		Testimonials: []types.Testimonial{
			{Name: "Sam", Text: "Lovely flat", Rating: 5},
		},
	})
	if err != nil {
		t.Fatalf("update home: %v", err)
	}
	if saved.HeroTitle != "Stay by the river" {
		t.Fatalf("unexpected hero title %q", saved.HeroTitle)
	}

	fetched, err := service.GetHome(ctx)
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if fetched.HeroTitle != saved.HeroTitle {
		t.Fatalf("expected saved content to be returned")
	}
}

func TestUpdateHomeValidation(t *testing.T) {
	service := NewContentService(&fakeContentRepo{})
	ctx := context.Background()

	var validationErr ValidationError
	if _, err := service.UpdateHome(ctx, types.HomeContent{}); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for empty hero title, got %v", err)
	}

	for _, rating := range []int{0, 9} {
		_, err := service.UpdateHome(ctx, types.HomeContent{
			HeroTitle: "Title",
			Testimonials: []types.Testimonial{
				{Name: "Sam", Text: "Nice", Rating: rating},
			},
		})
		if !errors.As(err, &validationErr) {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestGetAboutFallsBackToDefault(t *testing.T) {
	service := NewContentService(&fakeContentRepo{})

	content, err := service.GetAbout(context.Background())
	if err != nil {
		t.Fatalf("get about: %v", err)
	}
	if content.Title == "" {
		t.Fatalf("expected a default title")
	}
}

func TestUpdateAboutValidation(t *testing.T) {
	service := NewContentService(&fakeContentRepo{})
	ctx := context.Background()

	var validationErr ValidationError
	if _, err := service.UpdateAbout(ctx, types.AboutContent{Title: "About"}); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for missing description, got %v", err)
	}

	_, err := service.UpdateAbout(ctx, types.AboutContent{
		Title:       "About",
		Description: "We rent flats.",
		TeamMembers: []types.TeamMember{{Name: "Ann"}},
	})
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for member without position, got %v", err)
	}

	saved, err := service.UpdateAbout(ctx, types.AboutContent{
		Title:       "About",
		Description: "We rent flats.",
		TeamMembers: []types.TeamMember{{Name: "Ann", Position: "Manager"}},
	})
	if err != nil {
		t.Fatalf("update about: %v", err)
	}
	if saved.Title != "About" {
		t.Fatalf("unexpected title %q", saved.Title)
	}
}
