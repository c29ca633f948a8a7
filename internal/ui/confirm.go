package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beeux/beectl/pkg/provider"
)

// PromptInput is where confirmation answers are read from. Tests swap
// it for a strings.Reader.
var PromptInput io.Reader = os.Stdin

// Confirm asks a yes/no question and returns true only for y/yes
func Confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(PromptInput)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes"
}

// ConfirmExact asks the user to type an exact phrase. The comparison
// is case sensitive and only surrounding whitespace is forgiven.
func ConfirmExact(prompt, expected string) error {
	fmt.Printf("%s: ", prompt)

	reader := bufio.NewReader(PromptInput)
	response, _ := reader.ReadString('\n')
	if strings.TrimSpace(response) != expected {
		return fmt.Errorf("expected %q: %w", expected, provider.ErrConfirmMismatch)
	}
	return nil
}

// ConfirmDeletion walks the three-step confirmation gate before a VM
// and its resources are destroyed: the VM name, the word DELETE, and a
// final full-sentence acknowledgement. Any mismatch aborts.
func ConfirmDeletion(vmName string) error {
	fmt.Printf("This will permanently delete %s and its attached resources.\n\n", vmName)

	steps := []struct {
		prompt   string
		expected string
	}{
		{fmt.Sprintf("Type the VM name (%s) to continue", vmName), vmName},
		{"Type DELETE to continue", "DELETE"},
		{"Type YES I AM SURE to proceed", "YES I AM SURE"},
	}

	reader := bufio.NewReader(PromptInput)
	for _, s := range steps {
		fmt.Printf("%s: ", s.prompt)
		response, _ := reader.ReadString('\n')
		if strings.TrimSpace(response) != s.expected {
			return fmt.Errorf("expected %q: %w", s.expected, provider.ErrConfirmMismatch)
		}
	}
	return nil
}
