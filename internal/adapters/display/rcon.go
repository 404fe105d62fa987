package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/deathboard/internal/domain/slots"
	"github.com/okian/deathboard/pkg/logger"
)

const (
	entityType  = "minecraft:text_display"
	notFoundMsg = "No entity was found"
)

var (
	validTag    = regexp.MustCompile(`^[A-Za-z0-9_.+-]+$`)
	testPassed  = regexp.MustCompile(`Test passed(?:, count: (\d+))?`)
	errRejected = errors.New("command rejected")
)

// RCON is a slots.Backend that drives text display entities on a live server
// through console commands.
type RCON struct {
	exec   Executor
	logger logger.Logger
}

// NewRCON creates a backend issuing commands through exec.
func NewRCON(exec Executor) *RCON {
	return &RCON{exec: exec, logger: logger.Get().Named("display")}
}

// Find implements slots.Backend.
func (r *RCON) Find(ctx context.Context, tag string) (int, error) {
	if !validTag.MatchString(tag) {
		return 0, fmt.Errorf("%w: invalid tag %q", slots.ErrFindFailed, tag)
	}
	resp, err := r.exec.Execute(ctx, fmt.Sprintf("execute if entity %s", selector(tag, false)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", slots.ErrFindFailed, err)
	}
	return parseCount(resp)
}

// Create implements slots.Backend.
func (r *RCON) Create(ctx context.Context, def slots.Definition) error {
	if !validTag.MatchString(def.Tag) {
		return fmt.Errorf("%w: invalid tag %q", slots.ErrCreateFailed, def.Tag)
	}
	cmd, err := SummonCommand(def)
	if err != nil {
		return fmt.Errorf("%w: %w", slots.ErrCreateFailed, err)
	}
	resp, err := r.exec.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%w: %w", slots.ErrCreateFailed, err)
	}
	if !strings.HasPrefix(resp, "Summoned") {
		return fmt.Errorf("%w: %w: %s", slots.ErrCreateFailed, errRejected, resp)
	}
	return nil
}

// UpdateLabel implements slots.Backend.
func (r *RCON) UpdateLabel(ctx context.Context, tag, label string) error {
	if !validTag.MatchString(tag) {
		return fmt.Errorf("%w: invalid tag %q", slots.ErrUpdateFailed, tag)
	}
	text, err := textComponent(label, slots.RankColor, false)
	if err != nil {
		return fmt.Errorf("%w: %w", slots.ErrUpdateFailed, err)
	}
	resp, err := r.exec.Execute(ctx, fmt.Sprintf("data merge entity %s {text:'%s'}", selector(tag, true), text))
	if err != nil {
		return fmt.Errorf("%w: %w", slots.ErrUpdateFailed, err)
	}
	if strings.Contains(resp, notFoundMsg) {
		return fmt.Errorf("%w: %w: %s", slots.ErrUpdateFailed, slots.ErrSlotNotFound, tag)
	}
	return nil
}

// DeleteAll implements slots.Backend. Every tag is attempted; a tag with no
// entities is not an error.
func (r *RCON) DeleteAll(ctx context.Context, tags []string) error {
	var errs []error
	for _, tag := range tags {
		if !validTag.MatchString(tag) {
			errs = append(errs, fmt.Errorf("invalid tag %q", tag))
			continue
		}
		if _, err := r.exec.Execute(ctx, "kill "+selector(tag, false)); err != nil {
			errs = append(errs, fmt.Errorf("kill %s: %w", tag, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", slots.ErrDeleteFailed, err)
	}
	return nil
}

// Flush asks the server to persist player data, so stat files are current.
func (r *RCON) Flush(ctx context.Context) error {
	if _, err := r.exec.Execute(ctx, "save-all"); err != nil {
		return fmt.Errorf("save-all: %w", err)
	}
	return nil
}

// SummonCommand renders the console command that creates def.
func SummonCommand(def slots.Definition) (string, error) {
	text, err := textComponent(def.Label, def.Style.Color, def.Style.Bold)
	if err != nil {
		return "", err
	}
	a := def.Style.Anchor
	return fmt.Sprintf(
		`execute positioned %s %s %s run summon %s ~ ~%.1f ~ {text:'%s',CustomNameVisible:0b,billboard:"fixed",background:0b,Rotation:[%sf,%sf],Tags:["%s"]}`,
		coord(a.X), coord(a.Y), coord(a.Z),
		entityType, def.Style.OffsetY, text,
		coord(def.Style.Rotation.Yaw), coord(def.Style.Rotation.Pitch),
		def.Tag,
	), nil
}

func selector(tag string, single bool) string {
	if single {
		return fmt.Sprintf("@e[type=%s,tag=%s,limit=1]", entityType, tag)
	}
	return fmt.Sprintf("@e[type=%s,tag=%s]", entityType, tag)
}

type textJSON struct {
	Text  string `json:"text"`
	Color string `json:"color"`
	Bold  bool   `json:"bold"`
}

// textComponent renders a JSON text component safe to embed in a
// single-quoted SNBT string.
func textComponent(text, color string, bold bool) (string, error) {
	raw, err := json.Marshal(textJSON{Text: text, Color: color, Bold: bold})
	if err != nil {
		return "", fmt.Errorf("encode text component: %w", err)
	}
	s := strings.ReplaceAll(string(raw), `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`), nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseCount reads the reply of "execute if entity".
func parseCount(resp string) (int, error) {
	if strings.Contains(resp, "Test failed") {
		return 0, nil
	}
	m := testPassed.FindStringSubmatch(resp)
	if m == nil {
		return 0, fmt.Errorf("%w: unexpected reply %q", slots.ErrFindFailed, resp)
	}
	if m[1] == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", slots.ErrFindFailed, err)
	}
	return n, nil
}
