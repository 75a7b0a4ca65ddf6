// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"

	coreerrors "github.com/juju/beszel-operator/core/errors"
	"github.com/juju/beszel-operator/internal/config"
	"github.com/juju/beszel-operator/internal/relation"
	"github.com/juju/beszel-operator/internal/servicespec"
)

const instructionsTemplate = `Use this token when configuring Beszel agents:

1. Install the Beszel agent on the system to monitor
2. Configure the agent with:
   HUB_URL=%s
   TOKEN=%s
3. Start the agent service

See https://beszel.dev/guide/getting-started for more details.`

// AgentToken is a universal agent registration token minted by the hub.
// The operator does not keep track of issued tokens.
type AgentToken struct {
	Token        string
	Description  string
	Created      time.Time
	Instructions string
}

// Results renders the action output.
func (t AgentToken) Results() map[string]any {
	return map[string]any{
		"token":        t.Token,
		"instructions": t.Instructions,
	}
}

// String hides the token.
func (t AgentToken) String() string {
	return fmt.Sprintf("agent token %q created %s", t.Description, t.Created.Format(time.RFC3339))
}

// IssueAgentToken asks the hub to mint an agent token.
func (h *Handlers) IssueAgentToken(
	ctx context.Context, description string, cfg *config.Config, ingress relation.IngressFact,
) (AgentToken, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	argv := []string{servicespec.Entrypoint, "token", "create"}
	if description != "" {
		argv = append(argv, "--description", description)
	}
	res, err := h.config.Workload.RunCommand(ctx, argv)
	if err != nil {
		return AgentToken{}, errors.WithType(errors.Annotate(err, "creating agent token"), coreerrors.WorkloadUnavailable)
	}
	if res.ExitCode != 0 {
		return AgentToken{}, errors.WithType(
			errors.Errorf("creating agent token: exited with code %d", res.ExitCode),
			coreerrors.WorkloadUnavailable)
	}
	token := strings.TrimSpace(res.Stdout)
	if token == "" {
		return AgentToken{}, errors.WithType(
			errors.New("creating agent token: no token returned"),
			coreerrors.WorkloadUnavailable)
	}

	url := h.ResolveAdminURL(cfg, ingress)
	t := AgentToken{
		Token:        token,
		Description:  description,
		Created:      h.config.Clock.Now().UTC(),
		Instructions: fmt.Sprintf(instructionsTemplate, url, token),
	}
	h.config.Logger.Infof("created %v", t)
	return t, nil
}
