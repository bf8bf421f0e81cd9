package sessions

import (
	"fmt"
	"strings"
)

// Rule maps a command substring to a canned multi-line response. Rules
// are evaluated top to bottom; the first match wins.
type Rule struct {
	Match  string
	Output string
}

// DefaultRules is the simulated transport's command table. Extending it
// is a data change, not new branching.
var DefaultRules = []Rule{
	{Match: "ls", Output: "total 32\ndrwxr-xr-x  2 admin admin 4096 Mar  4 09:12 .\ndrwxr-xr-x 18 root  root  4096 Mar  4 09:12 ..\n-rw-r--r--  1 admin admin  220 Mar  4 09:12 .bash_logout\n-rw-r--r--  1 admin admin 3771 Mar  4 09:12 .bashrc\ndrwxr-xr-x  3 admin admin 4096 Mar  4 09:14 app\n-rw-r--r--  1 admin admin  807 Mar  4 09:12 .profile"},
	{Match: "ps", Output: "  PID TTY          TIME CMD\n    1 ?        00:00:02 systemd\n  412 ?        00:00:00 sshd\n  655 ?        00:01:13 node\n  901 pts/0    00:00:00 bash\n  933 pts/0    00:00:00 ps"},
	{Match: "df", Output: "Filesystem     1K-blocks    Used Available Use% Mounted on\n/dev/vda1       20509264 3845120  15599296  20% /\ntmpfs            1015148       0   1015148   0% /dev/shm\n/dev/vda15        106858    6186    100673   6% /boot/efi"},
	{Match: "free", Output: "               total        used        free      shared  buff/cache   available\nMem:         2030296      612180      845204        1156      572912     1264232\nSwap:              0           0           0"},
	{Match: "uptime", Output: " 09:41:23 up 12 days,  3:02,  1 user,  load average: 0.08, 0.12, 0.09"},
	{Match: "uname", Output: "Linux mirage-guest 6.1.0-18-cloud-amd64 #1 SMP Debian x86_64 GNU/Linux"},
	{Match: "whoami", Output: "admin"},
}

// respond produces the simulated output for a command. Anything
// unmatched echoes the literal command text.
func respond(rules []Rule, command string) string {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return ""
	}
	for _, rule := range rules {
		if strings.Contains(trimmed, rule.Match) {
			return rule.Output
		}
	}
	return fmt.Sprintf("sh: %s: simulated shell echoed command\n%s", strings.Fields(trimmed)[0], trimmed)
}
