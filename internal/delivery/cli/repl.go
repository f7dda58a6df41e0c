package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/LavaJover/shvark-exchange-form/internal/usecase/form"
	"github.com/fatih/color"
)

const barWidth = 40

const usage = `commands:
  l <amount>   edit RUB field
  r <amount>   edit USDT field
  lp <pct>     percentage shortcut from the RUB row (25, 50, 75, 100)
  rp <pct>     percentage shortcut from the USDT row
  show         print the form
  help         print this help
  quit         exit`

// Form is the part of form.Form the terminal drives.
type Form interface {
	EditLeft(text string) error
	EditRight(text string) error
	ClickPercentage(side domain.Side, percent int) error
	View() form.View
	Subscribe(fn func(form.View))
}

type REPL struct {
	form Form
	in   io.Reader
	out  io.Writer

	// mu guards out and lastFrame: timer-driven redraws come from other goroutines.
	mu        sync.Mutex
	lastFrame string

	prompt  *color.Color
	label   *color.Color
	editing *color.Color
	filled  *color.Color
	empty   *color.Color
	errc    *color.Color
}

func NewREPL(f Form, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		form:    f,
		in:      in,
		out:     out,
		prompt:  color.New(color.FgCyan, color.Bold),
		label:   color.New(color.Bold),
		editing: color.New(color.FgYellow),
		filled:  color.New(color.FgGreen),
		empty:   color.New(color.FgHiBlack),
		errc:    color.New(color.FgRed),
	}
}

// Run reads commands until quit, EOF or ctx cancellation.
// Every change of the form is redrawn as it happens, settles and rate
// refreshes included.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	r.form.Subscribe(r.redraw)
	r.Render()
	for {
		if ctx.Err() != nil {
			return nil
		}
		r.print(r.prompt, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		quit, err := r.Exec(scanner.Text())
		if err != nil {
			r.print(r.errc, fmt.Sprintf("error: %v\n", err))
			continue
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the session should end.
func (r *REPL) Exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		r.print(r.label, usage+"\n")
		return false, nil
	case "show":
		r.Render()
		return false, nil
	case "l", "r":
		// пустой аргумент тоже допустим: поле очищено
		text := strings.Join(args, " ")
		var err error
		if cmd == "l" {
			err = r.form.EditLeft(text)
		} else {
			err = r.form.EditRight(text)
		}
		if err != nil {
			return false, err
		}
	case "lp", "rp":
		if len(args) != 1 {
			return false, errors.New("usage: " + cmd + " <pct>")
		}
		pct, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%w: %q", domain.ErrInvalidPercentage, args[0])
		}
		side := domain.SideLeft
		if cmd == "rp" {
			side = domain.SideRight
		}
		if err := r.form.ClickPercentage(side, pct); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}

	// перерисовка придёт через подписку
	return false, nil
}

// Render prints the current form unconditionally.
func (r *REPL) Render() {
	r.show(r.form.View(), true)
}

// redraw prints v unless it looks exactly like the last printed frame.
func (r *REPL) redraw(v form.View) {
	r.show(v, false)
}

func (r *REPL) show(v form.View, force bool) {
	var buf bytes.Buffer
	r.renderView(&buf, v)
	frame := buf.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !force && frame == r.lastFrame {
		return
	}
	r.lastFrame = frame
	io.WriteString(r.out, frame)
}

func (r *REPL) print(c *color.Color, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Fprint(r.out, text)
}

func (r *REPL) renderView(w io.Writer, v form.View) {
	r.renderField(w, "RUB ", v.Left, v.Active == domain.SideLeft)
	r.renderField(w, "USDT", v.Right, v.Active == domain.SideRight)
	if v.Rate != nil {
		fmt.Fprintf(w, "rate  1 USDT = %s RUB\n", v.Rate.Forward.String())
	} else {
		fmt.Fprintln(w, "rate  unknown")
	}
	r.renderBar(w, v.Progress)
}

func (r *REPL) renderField(w io.Writer, name string, f form.FieldView, active bool) {
	marker := " "
	if active {
		marker = "*"
	}
	r.label.Fprintf(w, "%s%s ", marker, name)

	text := f.Raw
	if text == "" {
		text = f.Placeholder
	}
	if f.Phase == form.PhaseEditing {
		r.editing.Fprintf(w, "%s (editing)\n", text)
		return
	}
	fmt.Fprintln(w, text)
}

func (r *REPL) renderBar(w io.Writer, progress float64) {
	p := math.Max(0, math.Min(100, progress))
	n := int(math.Round(p / 100 * barWidth))

	fmt.Fprint(w, "[")
	r.filled.Fprint(w, strings.Repeat("#", n))
	r.empty.Fprint(w, strings.Repeat("-", barWidth-n))
	fmt.Fprintf(w, "] %.1f%%\n", progress)
}
