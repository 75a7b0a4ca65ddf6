// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/canonical/pebble/client"
	"github.com/juju/errors"

	coreerrors "github.com/juju/beszel-operator/core/errors"
	"github.com/juju/beszel-operator/internal/servicespec"
)

// Logger represents the logging methods called.
type Logger interface {
	Debugf(message string, args ...any)
	Warningf(message string, args ...any)
}

// Process is a command started through Pebble.
type Process interface {
	Wait() error
}

// PebbleAPI is the subset of the Pebble client used by PebbleClient.
type PebbleAPI interface {
	SysInfo() (*client.SysInfo, error)
	AddLayer(opts *client.AddLayerOptions) error
	Replan(opts *client.ServiceOptions) (string, error)
	WaitChange(id string, opts *client.WaitChangeOptions) (*client.Change, error)
	Health(opts *client.HealthOptions) (bool, error)
	Pull(opts *client.PullOptions) error
	Push(opts *client.PushOptions) error
	ListFiles(opts *client.ListFilesOptions) ([]FileInfo, error)
	RemovePath(opts *client.RemovePathOptions) error
	Exec(opts *client.ExecOptions) (Process, error)
}

// NewPebbleAPI connects to the Pebble daemon listening on socket.
func NewPebbleAPI(socket string) (PebbleAPI, error) {
	c, err := client.New(&client.Config{Socket: socket})
	if err != nil {
		return nil, errors.Annotatef(err, "connecting to pebble at %q", socket)
	}
	return pebbleAPI{Client: c}, nil
}

// pebbleAPI adapts *client.Client to PebbleAPI.
type pebbleAPI struct {
	*client.Client
}

func (p pebbleAPI) ListFiles(opts *client.ListFilesOptions) ([]FileInfo, error) {
	infos, err := p.Client.ListFiles(opts)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, len(infos))
	for i, info := range infos {
		files[i] = FileInfo{
			Name:    info.Name(),
			Path:    info.Path(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}
	return files, nil
}

func (p pebbleAPI) Exec(opts *client.ExecOptions) (Process, error) {
	return p.Client.Exec(opts)
}

// PebbleClient implements Client against a Pebble daemon.
type PebbleClient struct {
	api    PebbleAPI
	logger Logger
}

// NewPebbleClient returns a Client backed by the given Pebble API.
func NewPebbleClient(api PebbleAPI, logger Logger) *PebbleClient {
	return &PebbleClient{api: api, logger: logger}
}

// call runs f, giving up when ctx is done. Pebble's client has no context
// support, so an abandoned read finishes in the background.
func (c *PebbleClient) call(ctx context.Context, op string, f func() error) error {
	return c.run(ctx, op, f, false)
}

// mutate runs f like call, but never abandons it: when ctx is done first it
// still waits for f to return. A caller holding the workload lock therefore
// never releases it while a change is in flight. The result is still
// WorkloadUnavailable, and the change may or may not have been made.
func (c *PebbleClient) mutate(ctx context.Context, op string, f func() error) error {
	return c.run(ctx, op, f, true)
}

func (c *PebbleClient) run(ctx context.Context, op string, f func() error, settle bool) error {
	if err := ctx.Err(); err != nil {
		return errors.WithType(errors.Annotate(err, op), coreerrors.WorkloadUnavailable)
	}
	done := make(chan error, 1)
	go func() {
		done <- f()
	}()
	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		var apiErr *client.Error
		if errors.As(err, &apiErr) {
			return errors.Annotate(err, op)
		}
		// Anything that is not an API error means the daemon was not
		// reached.
		return errors.WithType(errors.Annotate(err, op), coreerrors.WorkloadUnavailable)
	case <-ctx.Done():
		if settle {
			err := <-done
			c.logger.Warningf("%s finished after its deadline (err: %v)", op, err)
		}
		return errors.WithType(errors.Annotate(ctx.Err(), op), coreerrors.WorkloadUnavailable)
	}
}

// CanConnect is part of the Client interface.
func (c *PebbleClient) CanConnect(ctx context.Context) bool {
	err := c.call(ctx, "querying pebble", func() error {
		_, err := c.api.SysInfo()
		return err
	})
	if err != nil {
		c.logger.Debugf("pebble not reachable: %v", err)
		return false
	}
	return true
}

// ApplySpec is part of the Client interface.
func (c *PebbleClient) ApplySpec(ctx context.Context, spec servicespec.ServiceSpec) error {
	layer, err := spec.Layer()
	if err != nil {
		return errors.Trace(err)
	}
	return c.mutate(ctx, "applying service spec", func() error {
		if err := c.api.AddLayer(&client.AddLayerOptions{
			Combine:   true,
			Label:     servicespec.LayerLabel,
			LayerData: layer,
		}); err != nil {
			return err
		}
		changeID, err := c.api.Replan(&client.ServiceOptions{})
		if err != nil {
			return err
		}
		if changeID == "" {
			return nil
		}
		change, err := c.api.WaitChange(changeID, &client.WaitChangeOptions{Timeout: remaining(ctx)})
		if err != nil {
			return err
		}
		if change.Err != "" {
			return errors.Errorf("replan failed: %s", change.Err)
		}
		return nil
	})
}

// ProbeHealth is part of the Client interface.
func (c *PebbleClient) ProbeHealth(ctx context.Context, timeout time.Duration) Health {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var healthy bool
	err := c.call(ctx, "probing health", func() error {
		var err error
		healthy, err = c.api.Health(&client.HealthOptions{
			Level: client.ReadyLevel,
			Names: []string{servicespec.CheckName},
		})
		return err
	})
	switch {
	case errors.Is(err, coreerrors.WorkloadUnavailable):
		return Unreachable
	case err != nil:
		c.logger.Debugf("health probe failed: %v", err)
		return Unhealthy
	case !healthy:
		return Unhealthy
	}
	return Healthy
}

// ProbeVersion is part of the Client interface. The hub prints
// "beszel version X.Y.Z"; only the version number is returned.
func (c *PebbleClient) ProbeVersion(ctx context.Context) (string, error) {
	res, err := c.RunCommand(ctx, []string{servicespec.Entrypoint, "--version"})
	if err != nil {
		return "", errors.Trace(err)
	}
	if res.ExitCode != 0 {
		return "", errors.Errorf("version probe exited with code %d", res.ExitCode)
	}
	version := strings.TrimSpace(res.Stdout)
	version = strings.TrimPrefix(version, "beszel version ")
	if version == "" {
		return "", errors.NotFoundf("hub version")
	}
	return version, nil
}

// ReadFile is part of the Client interface.
func (c *PebbleClient) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var buf bytes.Buffer
	err := c.call(ctx, "reading "+path, func() error {
		return c.api.Pull(&client.PullOptions{Path: path, Target: &buf})
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile is part of the Client interface. Pebble writes pushed files to
// a temporary name and renames them into place, so a failed push never
// leaves a partial file behind.
func (c *PebbleClient) WriteFile(ctx context.Context, path string, data []byte) error {
	return c.mutate(ctx, "writing "+path, func() error {
		return c.api.Push(&client.PushOptions{
			Source:      bytes.NewReader(data),
			Path:        path,
			MakeDirs:    true,
			Permissions: 0o600,
		})
	})
}

// RemoveFile is part of the Client interface.
func (c *PebbleClient) RemoveFile(ctx context.Context, path string) error {
	err := c.mutate(ctx, "removing "+path, func() error {
		return c.api.RemovePath(&client.RemovePathOptions{Path: path})
	})
	if isNotFound(err) {
		return nil
	}
	return err
}

// ListFiles is part of the Client interface.
func (c *PebbleClient) ListFiles(ctx context.Context, dir, pattern string) ([]FileInfo, error) {
	var files []FileInfo
	err := c.call(ctx, "listing "+dir, func() error {
		var err error
		files, err = c.api.ListFiles(&client.ListFilesOptions{Path: dir, Pattern: pattern})
		return err
	})
	if isNotFound(err) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RunCommand is part of the Client interface.
func (c *PebbleClient) RunCommand(ctx context.Context, argv []string) (CommandResult, error) {
	if len(argv) == 0 {
		return CommandResult{}, errors.NotValidf("empty command")
	}
	var stdout, stderr bytes.Buffer
	var result CommandResult
	err := c.call(ctx, "running "+argv[0], func() error {
		proc, err := c.api.Exec(&client.ExecOptions{
			Command: argv,
			Timeout: remaining(ctx),
			Stdout:  &stdout,
			Stderr:  &stderr,
		})
		if err != nil {
			return err
		}
		err = proc.Wait()
		var exitErr *client.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return nil
		}
		return err
	})
	if err != nil {
		return CommandResult{}, err
	}
	if result.ExitCode != 0 {
		c.logger.Warningf("%s exited with code %d: %s", argv[0], result.ExitCode, strings.TrimSpace(stderr.String()))
	}
	result.Stdout = stdout.String()
	return result, nil
}

func isNotFound(err error) bool {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == "not-found" || apiErr.StatusCode == http.StatusNotFound
}

// remaining returns the time left until the context deadline, or zero for
// no deadline.
func remaining(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	if d := time.Until(deadline); d > 0 {
		return d
	}
	return time.Millisecond
}
