package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/beeux/beectl/pkg/provider"
)

func withInput(t *testing.T, input string) {
	t.Helper()
	orig := PromptInput
	PromptInput = strings.NewReader(input)
	t.Cleanup(func() { PromptInput = orig })
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"yep\n", false},
	}

	for _, tt := range tests {
		withInput(t, tt.input)
		if got := Confirm("continue?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", strings.TrimSpace(tt.input), got, tt.want)
		}
	}
}

func TestConfirmExact(t *testing.T) {
	withInput(t, "DELETE\n")
	if err := ConfirmExact("Type DELETE", "DELETE"); err != nil {
		t.Errorf("ConfirmExact() error = %v", err)
	}

	withInput(t, "  DELETE  \n")
	if err := ConfirmExact("Type DELETE", "DELETE"); err != nil {
		t.Errorf("ConfirmExact() with surrounding whitespace: error = %v", err)
	}

	withInput(t, "delete\n")
	err := ConfirmExact("Type DELETE", "DELETE")
	if !errors.Is(err, provider.ErrConfirmMismatch) {
		t.Errorf("ConfirmExact(lowercase) error = %v, want ErrConfirmMismatch", err)
	}
}

func TestConfirmDeletion(t *testing.T) {
	withInput(t, "ubuntu-dev-01\nDELETE\nYES I AM SURE\n")
	if err := ConfirmDeletion("ubuntu-dev-01"); err != nil {
		t.Errorf("ConfirmDeletion() error = %v", err)
	}
}

func TestConfirmDeletionMismatches(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong vm name", "ubuntu-dev-02\nDELETE\nYES I AM SURE\n"},
		{"lowercase delete", "ubuntu-dev-01\ndelete\nYES I AM SURE\n"},
		{"weak final answer", "ubuntu-dev-01\nDELETE\nyes\n"},
		{"empty input", "\n\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withInput(t, tt.input)
			err := ConfirmDeletion("ubuntu-dev-01")
			if !errors.Is(err, provider.ErrConfirmMismatch) {
				t.Errorf("ConfirmDeletion() error = %v, want ErrConfirmMismatch", err)
			}
		})
	}
}
