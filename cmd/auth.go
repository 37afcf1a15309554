package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/snx/internal/auth"
	"github.com/desertthunder/snx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthStatus reports which credential source answers and, with --check, whether the API accepts the token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	chain := auth.FromConfig(r.config.Credentials, r.token)
	r.logger.Debug("resolving session token", "sources", chain.Name())

	source, tok, err := chain.Resolve()
	if err != nil {
		r.writePlain("✗ No session token found\n")
		r.writePlain("Sources tried: %s\n", chain.Name())
		return err
	}

	r.writePlain("✓ Session token found\n")
	r.writePlain("Source: %s\n", source)
	r.writePlain("Token: %s\n", auth.Redact(tok.AccessToken))

	if !cmd.Bool("check") {
		return nil
	}

	r.logger.Info("checking token against the API")
	resp, err := r.api.Get(ctx, "/notification/v2")
	if err != nil {
		r.writePlain("API: ✗ %v\n", err)
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.writePlain("API: ✓ Authenticated (%d attempt(s))\n", resp.Attempts)
}
