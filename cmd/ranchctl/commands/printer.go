package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kbukum/ranchkit/live"
	"github.com/kbukum/ranchkit/notify"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// printer writes human-readable CLI output.
type printer struct {
	out io.Writer
	err io.Writer
}

func (p printer) success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func (p printer) info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

func (p printer) step(format string, a ...any) {
	cyan.Fprintf(p.err, "→ %s\n", fmt.Sprintf(format, a...))
}

// fail prints a titled error with suggestions to stderr and returns a plain
// error for cobra.
func (p printer) fail(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.err, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}
	if len(suggestions) == 1 {
		fmt.Fprintf(p.err, "\n%s\n", suggestions[0])
	} else if len(suggestions) > 1 {
		fmt.Fprintf(p.err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.err, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// prettyJSON pretty-prints raw JSON, falling back to the raw bytes.
func (p printer) prettyJSON(raw []byte) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Fprintf(p.out, "%s\n", raw)
		return
	}
	pretty, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintf(p.out, "%s\n", pretty)
}

func (p printer) update(u live.Update) {
	label := strings.ToLower(strings.TrimSuffix(u.Type, "_UPDATE"))
	name := u.String("name")
	if name == "" {
		name = u.ID
	}
	fmt.Fprintf(p.out, "%s %s %s %s\n",
		faint.Sprint(u.ReceivedAt.Format(time.TimeOnly)),
		cyan.Sprintf("%-10s", label),
		name,
		faint.Sprint(summarize(u.Payload)))
}

func (p printer) notification(n notify.Notification) {
	c := green
	switch {
	case n.Type == notify.TypeError || n.Priority == notify.PriorityHigh:
		c = red
	case n.Type == notify.TypeWarning:
		c = yellow
	}
	at := n.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(p.out, "%s %s %s\n",
		faint.Sprint(at.Format(time.TimeOnly)),
		c.Sprintf("[%s] %s", n.Category, n.Title),
		n.Message)
}

func (p printer) jsonLine(v any) {
	line, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(p.out, "%s\n", line)
}

// summarize renders the scalar payload fields other than id and name.
func summarize(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k, v := range payload {
		if k == "id" || k == "name" {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, payload[k]))
	}
	return strings.Join(parts, " ")
}
