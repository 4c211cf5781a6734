package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"farmbot-server/client"
	"farmbot-server/fbos"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/umputun/go-flags"
)

var opts struct {
	Server  string        `long:"server" env:"FARMBOT_SERVER" default:"http://localhost:3536" description:"farmbot-server url"`
	Email   string        `long:"email" env:"FARMBOT_EMAIL" description:"account email, asked when empty"`
	Refresh time.Duration `long:"refresh" env:"FARMBOT_REFRESH" default:"5s" description:"status refresh interval"`
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.Color("0"))

	buttonColors = map[string]lipgloss.Color{
		"green":  lipgloss.Color("42"),
		"gray":   lipgloss.Color("245"),
		"yellow": lipgloss.Color("220"),
	}
)

type step int

const (
	stepEnteringEmail step = iota
	stepEnteringPassword
	stepLoggingIn
	stepStatus
)

// api is the part of client.Client the tool needs.
type api interface {
	Login(ctx context.Context, email, password string) error
	OsUpdate(ctx context.Context) (fbos.ButtonProps, error)
	CheckUpdates(ctx context.Context) (string, error)
}

type model struct {
	api          api
	refresh      time.Duration
	step         step
	email        string
	currentInput string
	props        *fbos.ButtonProps
	message      string
	updatedAt    time.Time
	quitting     bool
}

type loginSuccessMsg struct{}
type statusMsg fbos.ButtonProps
type checkSentMsg string
type refreshTickMsg struct{}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(c api, email string, refresh time.Duration) model {
	m := model{api: c, refresh: refresh, step: stepEnteringEmail}
	if email != "" {
		m.email = email
		m.step = stepEnteringPassword
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func tickRefresh(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func login(c api, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Login(ctx, email, password); err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Status == 401 {
				return errMsg{fmt.Errorf("invalid email or password")}
			}
			return errMsg{err}
		}
		return loginSuccessMsg{}
	}
}

func fetchStatus(c api) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		props, err := c.OsUpdate(ctx)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(props)
	}
}

func checkUpdates(c api) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		status, err := c.CheckUpdates(ctx)
		if err != nil {
			return errMsg{err}
		}
		return checkSentMsg(status)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "backspace":
			if len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}

		case "enter":
			switch m.step {
			case stepEnteringEmail:
				if m.currentInput != "" {
					m.email = m.currentInput
					m.currentInput = ""
					m.step = stepEnteringPassword
				}
			case stepEnteringPassword:
				if m.currentInput != "" {
					password := m.currentInput
					m.currentInput = ""
					m.step = stepLoggingIn
					m.message = "Logging in..."
					return m, login(m.api, m.email, password)
				}
			}

		default:
			if m.step == stepEnteringEmail || m.step == stepEnteringPassword {
				m.currentInput += msg.String()
				return m, nil
			}
			if m.step != stepStatus {
				return m, nil
			}
			switch msg.String() {
			case "q":
				m.quitting = true
				return m, tea.Quit
			case "r":
				return m, fetchStatus(m.api)
			case "u":
				if m.props != nil && m.props.Disabled {
					m.message = errorStyle.Render("✗ bot is offline or already updating")
					return m, nil
				}
				m.message = "Checking for updates..."
				return m, checkUpdates(m.api)
			}
		}

	case loginSuccessMsg:
		m.step = stepStatus
		m.message = successStyle.Render("✓ Logged in as " + m.email)
		return m, tea.Batch(fetchStatus(m.api), tickRefresh(m.refresh))

	case statusMsg:
		props := fbos.ButtonProps(msg)
		m.props = &props
		m.updatedAt = time.Now()

	case refreshTickMsg:
		return m, tea.Batch(fetchStatus(m.api), tickRefresh(m.refresh))

	case checkSentMsg:
		m.message = successStyle.Render(fmt.Sprintf("✓ update check %s", string(msg)))
		return m, fetchStatus(m.api)

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		if m.step == stepLoggingIn {
			m.step = stepEnteringPassword
		}
	}

	return m, nil
}

func renderButton(p fbos.ButtonProps) string {
	color, ok := buttonColors[p.Color]
	if !ok {
		color = buttonColors["gray"]
	}
	style := buttonStyle.Background(color)
	if p.Disabled {
		style = style.Faint(true)
	}
	label := p.Text
	if p.Progress != "" {
		label += " " + p.Progress
	}
	return style.Render(label)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("FarmBot OS status") + "\n")

	switch m.step {
	case stepEnteringEmail:
		s.WriteString(promptStyle.Render("Enter your email:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your password:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn:
		s.WriteString(m.message + "\n")

	case stepStatus:
		if m.props == nil {
			s.WriteString("Loading...\n")
		} else {
			s.WriteString(renderButton(*m.props) + "\n\n")
			if m.props.Title != "" {
				s.WriteString(fmt.Sprintf("Latest version: %s\n", m.props.Title))
			}
			s.WriteString(hintStyle.Render(fmt.Sprintf("updated %s", m.updatedAt.Format("15:04:05"))) + "\n")
		}
		if m.message != "" {
			s.WriteString("\n" + m.message + "\n")
		}
		s.WriteString(hintStyle.Render("\nu update, r refresh, q quit") + "\n")
	}

	return s.String()
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	p := tea.NewProgram(initialModel(client.New(opts.Server), opts.Email, opts.Refresh))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
