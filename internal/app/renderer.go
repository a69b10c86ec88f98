package app

import (
	"fmt"
	"io"
	"sync"

	"github.com/Raikerian/vitacare-voice/internal/session"
)

// Renderer prints session changes as a running terminal log: the status
// line whenever it changes and each transcript entry once.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	headline string
	hint     string
	printed  int
}

// NewRenderer returns a Renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render is a session change callback.
func (r *Renderer) Render(s session.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if headline, hint := s.Headline(), s.Hint(); headline != r.headline || hint != r.hint {
		r.headline, r.hint = headline, hint
		fmt.Fprintf(r.out, "[%s] %s\n", headline, hint)
	}

	if len(s.Transcript) < r.printed {
		r.printed = 0
	}
	for _, entry := range s.Transcript[r.printed:] {
		fmt.Fprintf(r.out, "%s: %s\n", speakerLabel(entry.Role), entry.Text)
	}
	r.printed = len(s.Transcript)
}

func speakerLabel(role session.Role) string {
	if role == session.RoleModel {
		return "VitaCare"
	}

	return "You"
}
