package modules

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/joshuarubin/go-sway"

	"github.com/halfmetre/strut/internal/loop"
)

const swayQueryTimeout = 2 * time.Second

// tag is the cached view of one sway workspace.
type tag struct {
	Num     int64
	Name    string
	Focused bool
	Visible bool
	Urgent  bool
}

// Tags displays sway workspace state. The wakeup source is a sway IPC
// subscription rather than a timer: the compositor tells us when workspaces
// change.
type Tags struct {
	client  sway.Client
	ready   chan struct{}
	cancel  context.CancelFunc
	ev      *loop.Event
	repaint func()
	tags    []tag
}

// tagsHandler pushes a readiness notification for every workspace event.
type tagsHandler struct {
	sway.EventHandler
	ready chan<- struct{}
}

func (h tagsHandler) Workspace(ctx context.Context, e sway.WorkspaceEvent) {
	select {
	case h.ready <- struct{}{}:
	default:
	}
}

// NewTags creates the workspace module. A missing sway socket is fatal at
// construction; the bar runs without the module.
func NewTags(repaint func()) (*Tags, error) {
	ctx, cancel := context.WithCancel(context.Background())

	client, err := sway.New(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to sway: %w", err)
	}

	t := &Tags{
		client:  client,
		ready:   make(chan struct{}, 1),
		cancel:  cancel,
		repaint: repaint,
	}
	t.ev = &loop.Event{
		Name:    "tags",
		Ready:   t.ready,
		OnInput: t.onWake,
	}
	t.fetch()

	go func() {
		handler := tagsHandler{
			EventHandler: sway.NoOpEventHandler(),
			ready:        t.ready,
		}
		if err := sway.Subscribe(ctx, handler, sway.EventTypeWorkspace); err != nil && ctx.Err() == nil {
			log.Printf("tags: subscription ended: %v", err)
		}
	}()

	return t, nil
}

func (t *Tags) onWake() (loop.Action, error) {
	t.fetch()
	if t.repaint != nil {
		t.repaint()
	}
	return loop.Continue, nil
}

// fetch re-queries the workspace list with a bounded deadline; a stalled
// compositor must not stall the bar. Failure keeps the previous tags.
func (t *Tags) fetch() {
	ctx, cancel := context.WithTimeout(context.Background(), swayQueryTimeout)
	defer cancel()

	workspaces, err := t.client.GetWorkspaces(ctx)
	if err != nil {
		log.Printf("tags: failed to get workspaces: %v", err)
		return
	}

	tags := make([]tag, 0, len(workspaces))
	for _, ws := range workspaces {
		tags = append(tags, tag{
			Num:     ws.Num,
			Name:    ws.Name,
			Focused: ws.Focused,
			Visible: ws.Visible,
			Urgent:  ws.Urgent,
		})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Num < tags[j].Num })
	t.tags = tags
}

// Name returns the module name
func (t *Tags) Name() string {
	return "tags"
}

// Event returns the tags loop event
func (t *Tags) Event() *loop.Event {
	return t.ev
}

// Print writes one marker per workspace: [n] focused, (n) visible on
// another output, !n urgent, bare otherwise.
func (t *Tags) Print(w io.Writer) error {
	parts := make([]string, 0, len(t.tags))
	for _, tg := range t.tags {
		switch {
		case tg.Focused:
			parts = append(parts, "["+tg.Name+"]")
		case tg.Urgent:
			parts = append(parts, "!"+tg.Name)
		case tg.Visible:
			parts = append(parts, "("+tg.Name+")")
		default:
			parts = append(parts, tg.Name)
		}
	}

	_, err := io.WriteString(w, strings.Join(parts, " "))
	return err
}

// Control handles "tags <n>" by asking sway to switch workspaces. The
// repaint rides on the workspace event sway sends back.
func (t *Tags) Control(message string) bool {
	target, ok := strings.CutPrefix(message, "tags ")
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), swayQueryTimeout)
	defer cancel()

	if _, err := t.client.RunCommand(ctx, "workspace number "+strings.TrimSpace(target)); err != nil {
		log.Printf("tags: workspace switch failed: %v", err)
	}
	return true
}

// Close tears down the sway connection and subscription.
func (t *Tags) Close() {
	t.cancel()
}
