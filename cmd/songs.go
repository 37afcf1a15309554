package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/snx/internal/shared"
	"github.com/desertthunder/snx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsComments prints the handles found in a song's comments.
func (r *Runner) SongsComments(ctx context.Context, cmd *cli.Command) error {
	handles, err := r.engine.CommentHandles(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(handles, false)
	}
	for _, h := range handles {
		r.writePlain("%s\n", h)
	}
	return nil
}

// SongsLyrics writes a song's aligned lyrics to an SRT file.
func (r *Runner) SongsLyrics(ctx context.Context, cmd *cli.Command) error {
	result, err := r.engine.LyricsSRT(ctx, cmd.StringArg("id"), cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Wrote %d cues to %s\n", result.Cues, result.Path)
}

// SongsParent prints the parent lookup of a song and optionally opens the parent in the browser.
func (r *Runner) SongsParent(ctx context.Context, cmd *cli.Command) error {
	parent, err := r.engine.ParentClip(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.writeRaw(parent, cmd.Bool("pretty")); err != nil {
		return err
	}

	if !cmd.Bool("open") {
		return nil
	}
	id := parentClipID(parent)
	if id == "" {
		return fmt.Errorf("%w: no parent clip id in response", shared.ErrAPIRequest)
	}
	return r.open(shared.SongURL(id))
}

// HideCreator hides a creator's songs or hooks from recommendations.
func (r *Runner) HideCreator(ctx context.Context, cmd *cli.Command) error {
	handle := cmd.StringArg("handle")
	resp, err := r.engine.HideCreator(ctx, strings.ToUpper(cmd.String("type")), handle)
	if err != nil {
		return err
	}
	r.logger.Info("creator hidden", "handle", handle, "type", cmd.String("type"))
	if len(resp) == 0 {
		return r.writePlain("✓ Hidden %s\n", handle)
	}
	return r.writeRaw(resp, cmd.Bool("pretty"))
}

// WorkspaceMigrate moves every song out of the other workspaces, leaving them in the target.
func (r *Runner) WorkspaceMigrate(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.MigrateOpts{Target: cmd.String("target"), DryRun: cmd.Bool("dry-run")}
	if !opts.DryRun {
		title := fmt.Sprintf("Move every song out of the other workspaces into %q?", opts.Target)
		if err := r.ask(title, cmd.Bool("yes")); err != nil {
			return err
		}
	}

	progress, stop := r.streamProgress()
	result, err := r.engine.MigrateWorkspace(ctx, progress, opts)
	stop()

	if cmd.Bool("json") {
		if werr := r.writeJSON(result, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Workspace migration")
	r.writePlain("Target: %s\n", result.Target)
	r.writePlain("Workspaces: %d (%d empty)\n", result.Projects, len(result.Empty))
	if result.DryRun {
		r.writePlain("Songs to move: %d (dry run)\n", result.Songs())
	} else {
		r.writePlain("Songs moved: %d\n", result.Songs())
	}
	return err
}

// parentClipID digs the parent clip id out of a parent lookup response.
func parentClipID(raw json.RawMessage) string {
	var body struct {
		ID     string `json:"id"`
		ClipID string `json:"clip_id"`
		Parent *struct {
			ID string `json:"id"`
		} `json:"parent"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch {
	case body.Parent != nil && body.Parent.ID != "":
		return body.Parent.ID
	case body.ClipID != "":
		return body.ClipID
	default:
		return body.ID
	}
}
