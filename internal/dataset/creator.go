package dataset

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ypid/datalad/internal/models"
	srvErrors "github.com/ypid/datalad/pkg/errors"
)

const (
	metaDir    = ".datalad"
	configFile = "config"

	defaultLockTimeout = 30 * time.Second
)

// Creator turns paths into datasets.
type Creator struct {
	force       bool
	lockTimeout time.Duration
	log         *zap.SugaredLogger
}

type CreatorOption func(*Creator)

// WithForce allows creating a dataset in a non-empty directory.
func WithForce(force bool) CreatorOption {
	return func(c *Creator) {
		c.force = force
	}
}

// WithLockTimeout bounds how long registration waits for a superdataset lock.
func WithLockTimeout(d time.Duration) CreatorOption {
	return func(c *Creator) {
		c.lockTimeout = d
	}
}

func NewCreator(opts ...CreatorOption) *Creator {
	c := &Creator{
		lockTimeout: defaultLockTimeout,
		log:         zap.S().Named("dataset"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create creates a dataset at path. It yields a "create" result and, when
// path lies inside another dataset, a "register" result for the
// superdataset. A path that already is a dataset yields a single notneeded
// result.
func (c *Creator) Create(ctx context.Context, path string) iter.Seq2[models.Result, error] {
	return func(yield func(models.Result, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(models.Result{}, err)
			return
		}

		path = filepath.Clean(path)
		res := models.Result{
			Action: models.ActionCreate,
			Path:   path,
			Type:   models.TypeDataset,
			RefDS:  path,
		}

		if IsDataset(path) {
			res.Status = models.StatusNotNeeded
			res.Message = "dataset already exists"
			yield(res, nil)
			return
		}

		if err := c.prepare(path); err != nil {
			yield(models.Result{}, err)
			return
		}

		id, err := c.initialize(path)
		if err != nil {
			yield(models.Result{}, err)
			return
		}
		c.log.Debugw("dataset created", "path", path, "id", id)

		res.Status = models.StatusOK
		if !yield(res, nil) {
			return
		}

		super, ok := Superdataset(path)
		if !ok {
			return
		}
		if err := c.register(ctx, super, path); err != nil {
			yield(models.Result{}, fmt.Errorf("registering in %s: %w", super, err))
			return
		}
		yield(models.Result{
			Action: models.ActionRegister,
			Path:   path,
			Type:   models.TypeDataset,
			Status: models.StatusOK,
			RefDS:  super,
		}, nil)
	}
}

// prepare makes sure path is an empty (or, with force, any) directory.
func (c *Creator) prepare(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(path, 0o755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", path)
	}

	if c.force {
		return nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return srvErrors.NewPathNotEmptyError(path)
	}
	return nil
}

func (c *Creator) initialize(path string) (string, error) {
	if _, err := git.PlainInit(path, false); err != nil && !errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return "", fmt.Errorf("initializing repository: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(path, metaDir), 0o755); err != nil {
		return "", err
	}

	id := uuid.NewString()
	content := fmt.Sprintf("[datalad \"dataset\"]\n\tid = %s\n", id)
	if err := os.WriteFile(filepath.Join(path, metaDir, configFile), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing dataset config: %w", err)
	}
	return id, nil
}

// IsDataset reports whether path holds a dataset.
func IsDataset(path string) bool {
	info, err := os.Stat(filepath.Join(path, metaDir, configFile))
	return err == nil && info.Mode().IsRegular()
}

// Superdataset returns the closest dataset strictly above path.
func Superdataset(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if IsDataset(dir) {
			return dir, true
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", false
		}
	}
}
