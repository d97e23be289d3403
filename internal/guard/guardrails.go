// Package guard holds the checks a dream request must pass before it is
// sent to the diffusion backend. Sizes, steps and cfg are the backend's
// business and pass through untouched.
package guard

import (
	"errors"
	"strings"

	"github.com/ccastromar/wfx-bot/internal/sd"
)

// ErrRejected marks a request refused locally; the backend was never called.
var ErrRejected = errors.New("guard: request rejected")

// CheckDream refuses a prompt with nothing but whitespace in it.
func CheckDream(p sd.GenerateParams) error {
	if strings.TrimSpace(p.Prompt) == "" {
		return errors.Join(ErrRejected, errors.New("prompt is empty"))
	}
	return nil
}
