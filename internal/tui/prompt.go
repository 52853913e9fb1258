package tui

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/schoolblog/blogctl/internal/api"
	"github.com/schoolblog/blogctl/internal/errors"
)

// Credentials holds what the login form collects
type Credentials struct {
	Email    string
	Password string
}

// Registration holds what the register form collects
type Registration struct {
	Name     string
	Email    string
	Password string
}

// PromptLogin collects credentials interactively
func PromptLogin() (Credentials, error) {
	var c Credentials

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&c.Email).
			Validate(requireField("email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(requireField("password")),
	))

	if err := form.Run(); err != nil {
		return Credentials{}, errors.Wrap(errors.KindUnknown, errors.CodePromptAborted, "login prompt failed", err)
	}
	return c, nil
}

// PromptRegister collects a new account interactively
func PromptRegister() (Registration, error) {
	var r Registration
	var confirm string

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&r.Name).
			Validate(requireField("name")),
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&r.Email).
			Validate(requireField("email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&r.Password).
			Validate(requireField("password")),
		huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&confirm),
	))

	if err := form.Run(); err != nil {
		return Registration{}, errors.Wrap(errors.KindUnknown, errors.CodePromptAborted, "register prompt failed", err)
	}
	if confirm != r.Password {
		return Registration{}, errors.New(errors.KindValidation, errors.CodePromptInvalid, "passwords do not match")
	}
	return r, nil
}

// PromptPostDraft collects a post draft interactively.
// existing pre-fills the form when editing.
func PromptPostDraft(existing *api.Post) (api.PostDraft, error) {
	var d api.PostDraft
	if existing != nil {
		d.Title = existing.Title
		d.Summary = existing.Summary
		d.Content = existing.Content
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Title").
			Value(&d.Title).
			Validate(requireField("title")),
		huh.NewInput().
			Title("Summary").
			Value(&d.Summary),
		huh.NewText().
			Title("Content").
			Value(&d.Content).
			Validate(requireField("content")),
		huh.NewInput().
			Title("Image path (optional)").
			Value(&d.ImagePath),
	))

	if err := form.Run(); err != nil {
		return api.PostDraft{}, errors.Wrap(errors.KindUnknown, errors.CodePromptAborted, "post prompt failed", err)
	}
	return d, nil
}

// PromptConfirm asks a yes/no question
func PromptConfirm(message string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false, errors.Wrap(errors.KindUnknown, errors.CodePromptAborted, "confirmation prompt failed", err)
	}
	return confirmed, nil
}

func requireField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(errors.KindValidation, errors.CodePromptInvalid, name+" is required")
		}
		return nil
	}
}
