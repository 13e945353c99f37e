package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	subdatasetsFile = "subdatasets"
	lockFile        = "subdatasets.lock"
)

var errLockHeld = errors.New("superdataset lock is held")

// register adds sub to the subdataset list of super. Concurrent
// registrations into the same superdataset are serialized by a lock file.
func (c *Creator) register(ctx context.Context, super, sub string) error {
	absSub, err := filepath.Abs(sub)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(super, absSub)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	unlock, err := c.lock(ctx, filepath.Join(super, metaDir, lockFile))
	if err != nil {
		return err
	}
	defer unlock()

	listPath := filepath.Join(super, metaDir, subdatasetsFile)
	subs, err := ReadSubdatasets(super)
	if err != nil {
		return err
	}
	if slices.Contains(subs, rel) {
		return nil
	}
	subs = append(subs, rel)
	slices.Sort(subs)

	tmp := listPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(subs, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, listPath)
}

func (c *Creator) lock(ctx context.Context, path string) (func(), error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if os.IsExist(err) {
			return struct{}{}, errLockHeld
		}
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, f.Close()
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(c.lockTimeout))
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", path, err)
	}

	return func() {
		if err := os.Remove(path); err != nil {
			c.log.Warnw("failed to release lock", "path", path, "error", err)
		}
	}, nil
}

// ReadSubdatasets lists the registered subdatasets of super, relative to it.
func ReadSubdatasets(super string) ([]string, error) {
	f, err := os.Open(filepath.Join(super, metaDir, subdatasetsFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var subs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			subs = append(subs, line)
		}
	}
	return subs, scanner.Err()
}
