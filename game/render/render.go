package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/wricardo/rushhour/game/engine"
)

// DefaultDelay is the pause between frames when animating in place.
const DefaultDelay = 500 * time.Millisecond

// Vehicle colors: bright red for the main vehicle, then the remaining
// bright colors, then the normal ones.
var palette = []lipgloss.Color{
	"9", "10", "11", "12", "13", "14", "15",
	"1", "2", "3", "4", "5", "6", "7",
}

var (
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	movedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
)

// Frame is one step of a replayed solution. The first frame has no move.
type Frame struct {
	Index int          `json:"index"`
	Move  *engine.Move `json:"move,omitempty"`
	Way   string       `json:"way,omitempty"`
	Board engine.Board `json:"board"`
}

// Grid labels every cell with its vehicle letter, '.' for empty cells.
func Grid(b engine.Board) [][]rune {
	rows := engine.GridRows(b)
	grid := make([][]rune, len(rows))
	for y, row := range rows {
		grid[y] = []rune(row)
	}
	return grid
}

// Text renders the board as plain rows separated by newlines.
func Text(b engine.Board) string {
	return strings.Join(engine.GridRows(b), "\n")
}

// Way returns the cardinal word ("up", "down", "left", "right") for m on b.
func Way(b engine.Board, m engine.Move) string {
	return string(b.Way(m))
}

// Replay turns a move list into frames, starting with the initial board.
func Replay(initial engine.Board, moves []engine.Move) ([]Frame, error) {
	boards, err := engine.Replay(initial, moves)
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, len(boards))
	frames[0] = Frame{Index: 0, Board: boards[0]}
	for i, m := range moves {
		m := m
		frames[i+1] = Frame{
			Index: i + 1,
			Move:  &m,
			Way:   Way(boards[i], m),
			Board: boards[i+1],
		}
	}
	return frames, nil
}

// Describe is the one-line caption for a frame, e.g. "(3/12): move B down".
func Describe(f Frame, total int) string {
	if f.Move == nil {
		return fmt.Sprintf("(0/%d): start", total)
	}
	return fmt.Sprintf("(%d/%d): move %s %s", f.Index, total, engine.Label(f.Move.Vehicle), f.Way)
}

// Renderer draws boards to a writer, with color when the writer is a terminal.
type Renderer struct {
	out     io.Writer
	style   *lipgloss.Renderer
	inPlace bool
	delay   time.Duration
}

// Options tune a Renderer. A negative Delay selects the default for the output.
type Options struct {
	Delay   time.Duration
	InPlace *bool
}

// NewRenderer creates a renderer for w. Terminals get in-place animation
// with DefaultDelay; anything else gets sequential frames with no delay.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	tty := IsTerminal(w)

	inPlace := tty
	if opts.InPlace != nil {
		inPlace = *opts.InPlace
	}

	delay := opts.Delay
	if delay < 0 {
		delay = 0
		if inPlace {
			delay = DefaultDelay
		}
	}

	return &Renderer{
		out:     w,
		style:   lipgloss.NewRenderer(w),
		inPlace: inPlace,
		delay:   delay,
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Styled draws b with one color per vehicle. Cells of the vehicle at index
// moved are drawn as "##"; pass -1 to highlight nothing.
func (r *Renderer) Styled(b engine.Board, moved int) string {
	grid := Grid(b)
	var sb strings.Builder
	for y, row := range grid {
		for _, label := range row {
			sb.WriteString(r.cell(label, moved))
		}
		if y < len(grid)-1 {
			sb.WriteByte('\n')
		}
	}
	return r.style.NewStyle().Inherit(frameStyle).Render(sb.String())
}

func (r *Renderer) cell(label rune, moved int) string {
	if label == '.' {
		return r.style.NewStyle().Inherit(emptyStyle).Render(". ")
	}
	i := int(label - 'A')
	if i < 0 {
		i = 0
	}
	bg := r.style.NewStyle().Background(palette[i%len(palette)])
	if i == moved {
		return bg.Inherit(movedStyle).Render("##")
	}
	return bg.Render(string(label) + " ")
}

// Summary is the header printed before a replay.
func Summary(moves int) string {
	if moves == 1 {
		return "solvable in 1 move"
	}
	return fmt.Sprintf("solvable in %d moves", moves)
}

// Play prints every frame of the solution. On a terminal each frame
// replaces the previous one.
func (r *Renderer) Play(ctx context.Context, initial engine.Board, moves []engine.Move) error {
	frames, err := Replay(initial, moves)
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, r.style.NewStyle().Inherit(headerStyle).Render(Summary(len(moves))))

	lastHeight := 0
	for _, f := range frames {
		moved := -1
		if f.Move != nil {
			moved = f.Move.Vehicle
		}
		block := Describe(f, len(moves)) + "\n" + r.Styled(f.Board, moved)

		if r.inPlace && lastHeight > 0 {
			// move the cursor back to the top of the previous frame
			fmt.Fprintf(r.out, "\x1b[%dA\x1b[J", lastHeight)
		}
		fmt.Fprintln(r.out, block)
		lastHeight = strings.Count(block, "\n") + 1

		if r.delay > 0 && f.Index < len(frames)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
	return nil
}
