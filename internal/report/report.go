package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kinemetry/internal/session"
	"kinemetry/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// Renderer writes terminal reports. Color is applied only when the writer is
// a TTY; piping output stays clean.
type Renderer struct {
	w        io.Writer
	colorize bool
}

// NewRenderer builds a renderer for the writer, detecting TTY color support.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, colorize: shouldColorize(w)}
}

// Sessions renders a listing of stored sessions, newest first.
func (r *Renderer) Sessions(rows []store.SessionRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(r.w, "No sessions recorded.")
		return err
	}
	headers := []string{"Session", "Exercise", "Mode", "Started", "Duration", "Reps"}
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		duration := "running"
		if row.StoppedAt != nil {
			duration = row.StoppedAt.Sub(row.StartedAt).Round(time.Second).String()
		}
		body = append(body, []string{
			shortID(row.ID),
			row.ExerciseID,
			row.Mode,
			row.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			fmt.Sprintf("%d", row.Reps),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}
	_, err := fmt.Fprintln(r.w, renderTable(headers, body, aligns))
	return err
}

// Session renders the full stored report for one session.
func (r *Renderer) Session(row *store.SessionRow, patterns []store.PatternRow, reps []store.RepRow, feedback []store.FeedbackRow) error {
	r.header(fmt.Sprintf("Session %s (%s)", shortID(row.ID), row.ExerciseID))
	r.line("Started", row.StartedAt.Local().Format(time.RFC1123))
	if row.StoppedAt != nil {
		r.line("Duration", row.StoppedAt.Sub(row.StartedAt).Round(time.Second).String())
	}
	r.line("Reps", fmt.Sprintf("%d", row.Reps))
	fmt.Fprintln(r.w)

	if err := r.repTable(reps); err != nil {
		return err
	}
	if err := r.patternTable(patterns); err != nil {
		return err
	}
	return r.feedbackTable(feedback)
}

// Summary renders an in-memory session result right after an offline run.
func (r *Renderer) Summary(sum *session.Summary) error {
	r.header(fmt.Sprintf("Session %s (%s)", shortID(sum.SessionID), sum.ExerciseID))
	r.line("Duration", sum.StoppedAt.Sub(sum.StartedAt).Round(time.Second).String())
	r.line("Reps", fmt.Sprintf("%d", sum.Reps))
	if sum.Rhythm != nil {
		verdict := "outside target"
		if sum.Rhythm.WithinTarget {
			verdict = "within target"
		}
		r.line("Rhythm", fmt.Sprintf("%.1f:1 (%s, target %.1f:1)",
			sum.Rhythm.Ratio, verdict, sum.Rhythm.TargetRatio))
	}
	fmt.Fprintln(r.w)

	if len(sum.Patterns) == 0 {
		fmt.Fprintln(r.w, "No compensation patterns detected.")
	} else {
		headers := []string{"Pattern", "Severity", "Magnitude", "Peak", "Detected"}
		body := make([][]string, 0, len(sum.Patterns))
		for _, p := range sum.Patterns {
			body = append(body, []string{
				kindLabel(string(p.Kind)),
				r.severity(string(p.Severity)),
				fmt.Sprintf("%.1f°", p.Magnitude),
				fmt.Sprintf("%.1f°", p.PeakMagnitude),
				p.DetectedAt.Local().Format("15:04:05.000"),
			})
		}
		aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
		fmt.Fprintln(r.w, renderTable(headers, body, aligns))
	}

	if len(sum.Feedback.Items) > 0 {
		r.header("Focus on")
		for i, item := range sum.Feedback.Items {
			fmt.Fprintf(r.w, "  %d. %s (%s, score %.1f)\n", i+1, item.Cue, kindLabel(string(item.Pattern.Kind)), item.Score)
		}
	}
	if sum.Feedback.Reinforcement != nil {
		rf := sum.Feedback.Reinforcement
		msg := fmt.Sprintf("%s (%.1f° → %.1f°)", rf.Cue, rf.BaselineDegrees, rf.RecentDegrees)
		if r.colorize {
			msg = ansiGreen + msg + ansiReset
		}
		fmt.Fprintln(r.w, msg)
	}
	return nil
}

func (r *Renderer) repTable(reps []store.RepRow) error {
	if len(reps) == 0 {
		return nil
	}
	headers := []string{"Rep", "Peak Angle", "Patterns", "Completed"}
	body := make([][]string, 0, len(reps))
	for _, rep := range reps {
		labels := make([]string, len(rep.Kinds))
		for i, k := range rep.Kinds {
			labels[i] = kindLabel(k)
		}
		patterns := strings.Join(labels, ", ")
		if patterns == "" {
			patterns = "clean"
		}
		body = append(body, []string{
			fmt.Sprintf("%d", rep.Number),
			fmt.Sprintf("%.1f°", rep.PeakDegrees),
			patterns,
			rep.CompletedAt.Local().Format("15:04:05.000"),
		})
	}
	aligns := []columnAlignment{alignRight, alignRight, alignLeft, alignRight}
	_, err := fmt.Fprintln(r.w, renderTable(headers, body, aligns))
	return err
}

func (r *Renderer) patternTable(patterns []store.PatternRow) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintln(r.w, "No compensation patterns detected.")
		return err
	}
	headers := []string{"Pattern", "Tier", "Severity", "Magnitude", "Peak", "Joints"}
	body := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		body = append(body, []string{
			kindLabel(p.Kind),
			p.Tier,
			r.severity(p.Severity),
			fmt.Sprintf("%.1f°", p.Magnitude),
			fmt.Sprintf("%.1f°", p.Peak),
			strings.Join(p.Joints, ", "),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	_, err := fmt.Fprintln(r.w, renderTable(headers, body, aligns))
	return err
}

func (r *Renderer) feedbackTable(items []store.FeedbackRow) error {
	if len(items) == 0 {
		return nil
	}
	r.header("Focus on")
	for _, item := range items {
		fmt.Fprintf(r.w, "  %d. %s (%s, score %.1f)\n", item.Rank, item.Cue, kindLabel(item.Kind), item.Score)
	}
	return nil
}

func (r *Renderer) header(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if r.colorize {
		line = ansiBlue + line + ansiReset
	}
	fmt.Fprintln(r.w, line)
}

func (r *Renderer) line(label, value string) {
	fmt.Fprintf(r.w, "  %-10s %s\n", label+":", value)
}

// severity colorizes the severity grade: red for the critical-tier grades,
// yellow for the warning tier.
func (r *Renderer) severity(s string) string {
	if !r.colorize {
		return s
	}
	switch s {
	case "moderate", "severe":
		return ansiRed + s + ansiReset
	case "minimal", "mild":
		return ansiYellow + s + ansiReset
	}
	return s
}

var titleCaser = cases.Title(language.English)

// kindLabel renders a pattern kind for humans: "trunk_lean" becomes
// "Trunk Lean".
func kindLabel(kind string) string {
	return titleCaser.String(strings.ReplaceAll(kind, "_", " "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
