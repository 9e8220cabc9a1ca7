package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/PizzaHomicide/webauth/internal/log"
)

// ProfileStore is the browser profile directory used by the in-app browser window.  Its cookies are the ones shared
// between authentication attempts.
type ProfileStore struct {
	dir string
}

func NewProfileStore(dir string) *ProfileStore {
	return &ProfileStore{dir: dir}
}

// Dir returns the profile directory, creating it if necessary.
func (p *ProfileStore) Dir() (string, error) {
	if err := os.MkdirAll(p.dir, 0700); err != nil {
		return "", fmt.Errorf("unable to create browser profile dir: %w", err)
	}
	return p.dir, nil
}

// ClearAllCookies wipes the profile so the next window starts without cookies or cached responses.
func (p *ProfileStore) ClearAllCookies(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("unable to clear browser profile: %w", err)
	}
	log.Debug("Cleared browser profile", "dir", p.dir)
	_, err := p.Dir()
	return err
}
