package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/creatornet/pkg/interact"
	"github.com/matzehuels/creatornet/pkg/layout"
	"github.com/matzehuels/creatornet/pkg/network"
	"github.com/matzehuels/creatornet/pkg/pipeline"
	"github.com/matzehuels/creatornet/pkg/render/sink"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/session"
)

const (
	// exploreFrameInterval paces the terminal simulation; terminals redraw
	// far slower than browsers.
	exploreFrameInterval = 50 * time.Millisecond

	panelWidth    = 38
	reheatAlpha   = 0.5
	maxNeighbors  = 5
	sparkLevels   = "▁▂▃▄▅▆▇█"
	sparkMaxWidth = panelWidth - 4
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(panelWidth - 2)
	panelLabelStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// exploreCommand creates the explore command for the interactive terminal view.
func (c *CLI) exploreCommand() *cobra.Command {
	var refresh bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "explore [network.json]",
		Short: "Explore a creator network interactively in the terminal",
		Long: `Explore a creator network interactively in the terminal.

The layout runs live: drag creators with the mouse, click one to select it
and see its details and strongest links.

Keys: tab cycles the selection, esc clears it, l toggles labels, r reheats
the layout and q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			o := c.mergeFlags(cmd, opts)
			o.Refresh = refresh
			return c.runExplore(cmd.Context(), input, o)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the network cache")
	addLayoutFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx, input)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	loading := newProgress(c.Logger)
	p, err := runner.LoadNetwork(ctx, opts)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		printWarning("%s has no creators to explore", opts.Platform)
		return nil
	}
	loading.done(fmt.Sprintf("Loaded %d creators", len(p.Creators)))
	metric, _ := network.ParseMetric(opts.Metric)

	sopts := c.Config.SessionOptions()
	sopts.Layout = opts.LayoutOptions()
	sopts.FrameInterval = exploreFrameInterval
	sopts.Logger = c.Logger.WithPrefix("explore")
	sess := session.New(p.Graph(metric), sopts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(ctx)
	defer sess.Close()

	m := newExploreModel(ctx, sess, p, opts.Style)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// exploreModel
// =============================================================================

type (
	eventMsg  session.Event
	closedMsg struct{}
)

// waitForEvent delivers the next session event as a message.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// exploreModel is the bubbletea model of the explore command. The session
// owns the simulation; the model only mirrors its latest frame and forwards
// pointer events.
type exploreModel struct {
	ctx     context.Context
	sess    *session.Session
	payload network.Payload
	style   scene.Style
	events  <-chan session.Event
	unsub   func()

	frame  layout.Frame
	sel    scene.Selection
	width  int
	height int
	labels bool
	down   string
	err    error
}

func newExploreModel(ctx context.Context, sess *session.Session, p network.Payload, style scene.Style) *exploreModel {
	events, unsub := sess.Subscribe()
	return &exploreModel{
		ctx:     ctx,
		sess:    sess,
		payload: p,
		style:   style,
		events:  events,
		unsub:   unsub,
		frame:   sess.Frame(),
		sel:     sess.Selection(),
		labels:  true,
	}
}

func (m *exploreModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		if msg.Frame != nil {
			m.frame = *msg.Frame
		}
		m.sel = msg.Selection
		return m, waitForEvent(m.events)

	case closedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.unsub()
			return m, tea.Quit
		case "l":
			m.labels = !m.labels
		case "r":
			m.setErr(m.sess.Reheat(m.ctx, reheatAlpha))
		case "esc":
			m.setErr(m.sess.Select(m.ctx, ""))
		case "tab":
			m.setErr(m.sess.Select(m.ctx, nextNode(m.frame, m.sel.Selected)))
		}
		m.sel = m.sess.Selection()

	case tea.MouseMsg:
		m.mouse(msg)
		m.sel = m.sess.Selection()
	}
	return m, nil
}

// mouse translates a terminal mouse event into session pointer events.
func (m *exploreModel) mouse(msg tea.MouseMsg) {
	cols, rows := m.graphSize()
	x, y := msg.X, msg.Y-1 // header line
	inside := x >= 0 && x < cols && y >= 0 && y < rows
	view := m.view()
	pt := cellCenter(x, y)
	node := ""
	if inside {
		node = hitNode(m.sess.Scene(m.style), view, pt)
	}

	send := func(t session.PointerType, id string) {
		m.setErr(m.sess.Pointer(m.ctx, session.Pointer{Type: t, Node: id, X: pt.X, Y: pt.Y, View: &view}))
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		m.down = node
		if node != "" {
			send(session.PointerDown, node)
		}
	case tea.MouseActionMotion:
		switch {
		case m.sel.Dragging != "":
			send(session.PointerMove, "")
		case inside:
			send(session.PointerHover, node)
		default:
			send(session.PointerLeave, "")
		}
	case tea.MouseActionRelease:
		if m.sel.Dragging != "" {
			send(session.PointerUp, "")
		}
		if m.down != "" && m.down == node {
			send(session.PointerClick, node)
		}
		m.down = ""
	}
}

func (m *exploreModel) setErr(err error) {
	if err != nil {
		m.err = err
	}
}

// graphSize returns the cells available for the graph.
func (m *exploreModel) graphSize() (int, int) {
	cols := m.width - panelWidth
	rows := m.height - 2
	return max(cols, 0), max(rows, 0)
}

func (m *exploreModel) view() interact.View {
	cols, rows := m.graphSize()
	return interact.StretchView(m.frame.Width, m.frame.Height, float64(cols), float64(rows))
}

func (m *exploreModel) View() string {
	if m.width == 0 {
		return ""
	}
	cols, rows := m.graphSize()
	sc := scene.Build(m.frame, m.sel, m.style)
	graph := sink.Terminal(sc, sink.TerminalOptions{Cols: cols, Rows: rows, Labels: m.labels})
	body := lipgloss.JoinHorizontal(lipgloss.Top, graph, m.panel(rows))

	status := fmt.Sprintf("%d creators · tick %d · α %.3f", len(m.frame.Nodes), m.frame.Tick, m.frame.Alpha)
	if m.err != nil {
		status += " · " + StyleWarning.Render(m.err.Error())
	}
	help := StyleDim.Render("drag move · click select · tab next · esc clear · l labels · r reheat · q quit")

	return StyleTitle.Render("creatornet") + "  " + StyleDim.Render(status) + "\n" + body + "\n" + help
}

// panel renders the detail panel for the selected, or else hovered, creator.
func (m *exploreModel) panel(rows int) string {
	id := m.sel.Selected
	if id == "" {
		id = m.sel.Hovered
	}
	return panelStyle.Height(max(rows-2, 1)).Render(creatorDetails(&m.payload, id))
}

// creatorDetails describes the creator with the given id for the panel.
func creatorDetails(p *network.Payload, id string) string {
	c, ok := p.Creator(id)
	if !ok {
		return StyleDim.Render("Hover or click a creator\nto see its details.")
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(scene.Truncate(c.DisplayName(), panelWidth-4)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(c.ID))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(panelLabelStyle.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Followers", StyleValue.Render(formatCount(c.Followers))+" "+formatDelta(c.FollowersDelta))
	row("Interaction", formatDelta(c.InteractionDelta))
	row("Engagement", StyleNumber.Render(fmt.Sprintf("%.2f", c.EngagementIndex)))
	if c.PrimaryTrack != "" {
		row("Track", c.PrimaryTrack)
	}
	if cluster, ok := p.Cluster(c.ID); ok && cluster != c.PrimaryTrack {
		row("Cluster", cluster)
	}
	if c.ContentForm != "" {
		row("Form", c.ContentForm)
	}
	if len(c.RecentKeywords) > 0 {
		row("Keywords", scene.Truncate(strings.Join(c.RecentKeywords, ", "), panelWidth-15))
	}

	if spark := sparkline(c.IndexSeries, sparkMaxWidth); spark != "" {
		b.WriteString("\n")
		b.WriteString(panelLabelStyle.Render("Index"))
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(spark))
		b.WriteString("\n")
	}

	if t := neighborTable(p, c.ID); t != "" {
		b.WriteString("\n")
		b.WriteString(t)
	}
	return b.String()
}

// neighborTable lists the strongest links of id.
func neighborTable(p *network.Payload, id string) string {
	neighbors := p.Neighbors(id)
	if len(neighbors) == 0 {
		return ""
	}
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	rows := make([][]string, len(neighbors))
	for i, n := range neighbors {
		name := n.ID
		if c, ok := p.Creator(n.ID); ok {
			name = c.DisplayName()
		}
		rows[i] = []string{scene.Truncate(name, panelWidth-14), fmt.Sprintf("%.2f", n.Weight)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Linked", "Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// sparkline draws the index series scaled to its own range. Longer series
// keep their most recent width samples.
func sparkline(series []network.IndexPoint, width int) string {
	if len(series) == 0 || width <= 0 {
		return ""
	}
	if len(series) > width {
		series = series[len(series)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range series {
		v := p.Score()
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	levels := []rune(sparkLevels)
	var b strings.Builder
	for _, p := range series {
		i := 0
		if hi > lo {
			i = int((p.Score() - lo) / (hi - lo) * float64(len(levels)-1))
		}
		b.WriteRune(levels[i])
	}
	return b.String()
}

// cellCenter returns the screen point at the center of a terminal cell.
func cellCenter(x, y int) interact.Point {
	return interact.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
}

// hitNode returns the node under screen point pt. A cell is coarse, so a
// miss is retried with the cell's extent as tolerance.
func hitNode(s scene.Scene, view interact.View, pt interact.Point) string {
	sim := view.ScreenToSimulation(pt)
	if id, ok := s.HitTest(sim.X, sim.Y); ok {
		return id
	}
	corner := view.ScreenToSimulation(interact.Point{X: pt.X + 0.5, Y: pt.Y + 0.5})
	slack := math.Hypot(corner.X-sim.X, corner.Y-sim.Y)
	best, bestDist := "", math.Inf(1)
	for _, n := range s.Nodes {
		d := math.Hypot(sim.X-n.X, sim.Y-n.Y) - n.R
		if d <= slack && d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best
}

// nextNode returns the node after current in frame order, wrapping around.
func nextNode(f layout.Frame, current string) string {
	if len(f.Nodes) == 0 {
		return ""
	}
	for i, n := range f.Nodes {
		if n.ID == current {
			return f.Nodes[(i+1)%len(f.Nodes)].ID
		}
	}
	return f.Nodes[0].ID
}
