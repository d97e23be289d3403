package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bwmarrin/discordgo"

	"github.com/ccastromar/wfx-bot/internal/guard"
	"github.com/ccastromar/wfx-bot/internal/httpx"
	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/sd"
	"github.com/ccastromar/wfx-bot/internal/waifu"
)

const (
	msgDreamFailed = "Unexpected error, try again later"
	msgDreamEmpty  = "Unexpected error, expected > 1 but got 0"
)

func (b *Bot) reaction(ctx context.Context, inv invocation, kind string, fetch func(context.Context) (*waifu.Image, error)) (reply, bool) {
	failed := textReply(fmt.Sprintf("Failed to get %s GIF", kind))

	img, err := fetch(ctx)
	if err != nil {
		logx.LE(inv.id, "Anime", "%s lookup failed (%s): %v", kind, httpx.Kind(err), err)
		return failed, false
	}
	data, err := b.media.Fetch(ctx, img.URL)
	if err != nil {
		logx.LE(inv.id, "Anime", "%s download failed: %v", kind, err)
		return failed, false
	}
	return reply{Files: []*discordgo.File{fileFrom(kind+".gif", "image/gif", data)}}, true
}

func (b *Bot) dream(ctx context.Context, inv invocation, p sd.GenerateParams) (reply, bool) {
	if err := guard.CheckDream(p); err != nil {
		logx.Warn("Dream", "[%s] %v", inv.id, err)
		return textReply(msgDreamFailed), false
	}

	res, err := b.gen.Generate(ctx, p)
	if err != nil {
		logx.LE(inv.id, "Dream", "error found on wfx dream (%s): %v", httpx.Kind(err), err)
		return textReply(msgDreamFailed), false
	}
	if len(res.Images) == 0 {
		logx.LE(inv.id, "Dream", "backend returned no images")
		return textReply(msgDreamEmpty), false
	}
	i := res.Info
	logx.L(inv.id, "Dream", "generated %d image(s) %dx%d steps=%d cfg=%g seed=%d", len(res.Images), i.Width, i.Height, i.Steps, i.CFGScale, i.Seed)
	return dreamReply(res, inv.user, b.now()), true
}

func (b *Bot) guideSection(inv invocation, name string) (reply, bool) {
	s, ok := b.guide.Sections[name]
	if !ok {
		logx.Warn("Guide", "unknown section %q", name)
		return textReply("Unknown guide section"), false
	}

	var image []byte
	if s.Image != "" {
		data, err := b.readFile(s.Image)
		if err != nil {
			// still useful without the picture
			logx.Warn("Guide", "[%s] image %s unavailable: %v", inv.id, s.Image, err)
		} else {
			image = data
		}
	}
	return guideReply(s, image, b.now()), true
}

func readAsset(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}
