package sessions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespond_KnownCommands(t *testing.T) {
	out := respond(DefaultRules, "ls -la")
	assert.NotEmpty(t, out)
	assert.True(t, strings.Contains(out, "\n"), "listing output is multi-line")
	assert.Contains(t, out, ".bashrc")

	assert.Contains(t, respond(DefaultRules, "ps aux"), "PID")
	assert.Contains(t, respond(DefaultRules, "df -h"), "Filesystem")
	assert.Contains(t, respond(DefaultRules, "free -m"), "Mem:")
	assert.Contains(t, respond(DefaultRules, "uptime"), "load average")
	assert.Contains(t, respond(DefaultRules, "uname -a"), "Linux")
	assert.Equal(t, "admin", respond(DefaultRules, "whoami"))
}

func TestRespond_FirstMatchWins(t *testing.T) {
	// "ls" appears before "ps" in the table; a command containing both
	// substrings resolves to the earlier rule.
	out := respond(DefaultRules, "ls /proc/ps")
	assert.Contains(t, out, ".bashrc")
}

func TestRespond_UnknownCommandEchoesLiteralText(t *testing.T) {
	out := respond(DefaultRules, "unknown_cmd --flag value")
	assert.Contains(t, out, "unknown_cmd --flag value", "echo includes the literal command")
	assert.Contains(t, out, "sh: unknown_cmd:")
}

func TestRespond_WhitespaceHandling(t *testing.T) {
	assert.Equal(t, "", respond(DefaultRules, ""))
	assert.Equal(t, "", respond(DefaultRules, "   \t  "))
	assert.Equal(t, "admin", respond(DefaultRules, "  whoami  "))
}

func TestRespond_CustomRules(t *testing.T) {
	rules := []Rule{{Match: "hostname", Output: "mirage-guest"}}
	assert.Equal(t, "mirage-guest", respond(rules, "hostname"))
	// Table replacement removes the defaults entirely.
	assert.Contains(t, respond(rules, "whoami"), "sh: whoami:")
}
