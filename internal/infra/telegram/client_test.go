package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc"}, parts)

	long := strings.Repeat("x", 25)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, splitMessage(long, 10))
}

func TestStartAndHelpText(t *testing.T) {
	assert.Contains(t, startText(true, "Ann"), "Hello, Ann!")
	assert.NotContains(t, startText(false, "Bob"), "Bob")
	for _, cmd := range []string{"/mrr", "/cohort", "/status", "/sync", "/help"} {
		assert.Contains(t, adminHelpText(), cmd)
	}
}
