package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"video-maker/internal/faults"
	"video-maker/internal/logger"
)

// Player plays a media file with an installed desktop player.
type Player struct {
	runner Runner
	lookup func(string) (string, bool)
}

// NewPlayer returns a player that prefers vlc and falls back to ffplay.
func NewPlayer() *Player {
	return &Player{runner: ExecRunner{}, lookup: FindExecutable}
}

// Command returns the playback command for path, or ErrToolUnavailable
// when neither vlc nor ffplay is installed.
func (p *Player) Command(path string) (*Command, error) {
	if vlc, ok := p.lookup("vlc"); ok {
		return NewCommand(vlc).Arg("--play-and-exit", path), nil
	}
	if ffplay, ok := p.lookup("ffplay"); ok {
		return NewCommand(ffplay).Arg("-autoexit", path), nil
	}
	return nil, faults.Wrap(faults.ErrToolUnavailable, "play", path,
		fmt.Errorf("install vlc or ffmpeg (ffplay)"))
}

// Play blocks until the player exits.
func (p *Player) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return faults.Wrap(faults.ErrMissingFile, "play", path, err)
	}
	cmd, err := p.Command(path)
	if err != nil {
		return err
	}
	logger.Info("Player: %s %s", filepath.Base(cmd.Program), filepath.Base(path))
	if out, err := p.runner.Run(ctx, cmd); err != nil {
		return faults.Wrap(faults.ErrPlaybackFailed, "play", path, fmt.Errorf("%w\nOutput: %s", err, out))
	}
	return nil
}
