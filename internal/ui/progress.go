package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tameszaza/p2p/internal/utils"
)

// TransferMode selects the header of a TransferUI.
type TransferMode int

const (
	ModeSend TransferMode = iota
	ModeReceive
)

type tickMsg time.Time

type progressUpdate struct {
	current   int64
	completed bool
	failed    bool
	errMsg    string
}

// TransferUI draws a live progress bar for one file. Input and signals stay
// with the caller: the program never reads the terminal.
type TransferUI struct {
	program *tea.Program
	model   *fileProgressModel
	out     io.Writer
	wg      sync.WaitGroup
	once    sync.Once
}

type fileProgressModel struct {
	mode    TransferMode
	name    string
	size    int64
	bar     progress.Model
	spinner spinner.Model

	mu        sync.RWMutex
	current   int64
	startTime time.Time
	complete  bool
	failed    bool
	errMsg    string
}

func NewTransferUI(out io.Writer, mode TransferMode, name string, size int64) *TransferUI {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &fileProgressModel{
		mode: mode,
		name: name,
		size: size,
		bar: progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		spinner:   s,
		startTime: time.Now(),
	}

	return &TransferUI{model: model, out: out}
}

// Start runs the program in the background.
func (u *TransferUI) Start() {
	u.program = tea.NewProgram(u.model,
		tea.WithInput(nil),
		tea.WithOutput(u.out),
		tea.WithoutSignalHandler(),
	)

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		if _, err := u.program.Run(); err != nil {
			fmt.Fprintf(u.out, "UI error: %v\n", err)
		}
	}()
}

func (u *TransferUI) send(msg progressUpdate) {
	if u.program != nil {
		u.program.Send(msg)
	}
}

func (u *TransferUI) UpdateProgress(current int64) {
	u.send(progressUpdate{current: current})
}

func (u *TransferUI) MarkComplete() {
	u.send(progressUpdate{completed: true})
}

func (u *TransferUI) MarkFailed(errMsg string) {
	u.send(progressUpdate{failed: true, errMsg: errMsg})
}

// Println prints above the progress bar while it is running.
func (u *TransferUI) Println(args ...any) {
	if u.program != nil {
		u.program.Println(args...)
		return
	}
	fmt.Fprintln(u.out, args...)
}

// Stop waits for the final frame and releases the terminal.
func (u *TransferUI) Stop() {
	u.once.Do(func() {
		if u.program == nil {
			return
		}
		u.program.Quit()
		u.wg.Wait()
	})
}

func (m *fileProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *fileProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(30, msg.Width-60))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if !m.finished() {
			return m, tick()
		}

	case progressUpdate:
		m.mu.Lock()
		switch {
		case msg.completed:
			m.complete = true
			m.current = max(m.current, m.size)
		case msg.failed:
			m.failed = true
			m.errMsg = msg.errMsg
		default:
			m.current = msg.current
		}
		m.mu.Unlock()

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m *fileProgressModel) finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.complete || m.failed
}

func (m *fileProgressModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder

	icon, verb := IconSend, "Sending"
	if m.mode == ModeReceive {
		icon, verb = IconReceive, "Receiving"
	}

	status := m.spinner.View()
	nameStyle := BoldStyle
	switch {
	case m.failed:
		status, nameStyle = IconError, ErrorStyle
	case m.complete:
		status, nameStyle = IconSuccess, SuccessStyle
	}

	fmt.Fprintf(&b, "%s %s %s %s\n", status, icon, verb, nameStyle.Render(utils.TruncateString(m.name, 40)))

	var percent float64
	if m.size > 0 {
		percent = min(1, float64(m.current)/float64(m.size))
	} else if m.complete {
		percent = 1
	}
	b.WriteString("  " + m.bar.ViewAs(percent))
	fmt.Fprintf(&b, " %5.1f%%", percent*100)

	elapsed := time.Since(m.startTime)
	speed := utils.AverageSpeed(m.current, elapsed)
	b.WriteString(MutedStyle.Render(fmt.Sprintf(" %s/%s %s",
		utils.FormatSize(m.current), utils.FormatSize(m.size), utils.FormatSpeed(speed))))

	if !m.complete && !m.failed && speed > 0 && m.current < m.size {
		eta := time.Duration(float64(m.size-m.current) / speed * float64(time.Second))
		b.WriteString(MutedStyle.Render(" ETA: " + utils.FormatTimeDuration(eta)))
	}
	if m.failed && m.errMsg != "" {
		b.WriteString("\n  " + ErrorStyle.Render(m.errMsg))
	}
	b.WriteString("\n")

	return b.String()
}
