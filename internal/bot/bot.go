// Package bot is the Discord side: slash command registration, dispatch and
// rendering. Backend calls go through the waifu and sd clients.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/metrics"
	"github.com/ccastromar/wfx-bot/internal/sd"
	"github.com/ccastromar/wfx-bot/internal/waifu"
)

type Reactions interface {
	Angry(ctx context.Context) (*waifu.Image, error)
	Baka(ctx context.Context) (*waifu.Image, error)
}

type Generator interface {
	Generate(ctx context.Context, p sd.GenerateParams) (*sd.GenerateResult, error)
}

type MediaFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// responder is the part of *discordgo.Session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Deps struct {
	Reactions Reactions
	Generator Generator
	Guide     *config.Guide
	// Media defaults to a plain HTTP fetcher with MediaTimeout.
	Media        MediaFetcher
	MediaTimeout time.Duration
	// ReadFile loads guide images; defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

type Bot struct {
	session *discordgo.Session
	guildID string

	reactions Reactions
	gen       Generator
	media     MediaFetcher
	guide     *config.Guide
	readFile  func(string) ([]byte, error)

	baseCtx   context.Context
	connected atomic.Bool
	now       func() time.Time
}

func New(token, guildID string, d Deps) (*Bot, error) {
	if d.Reactions == nil || d.Generator == nil || d.Guide == nil {
		return nil, errors.New("bot: reactions, generator and guide are required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("bot: session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsAllWithoutPrivileged

	b := newBot(d)
	b.session = s
	b.guildID = guildID
	return b, nil
}

// newBot wires everything but the gateway session.
func newBot(d Deps) *Bot {
	media := d.Media
	if media == nil {
		timeout := d.MediaTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		media = newMediaFetcher(timeout)
	}
	readFile := d.ReadFile
	if readFile == nil {
		readFile = readAsset
	}
	return &Bot{
		reactions: d.Reactions,
		gen:       d.Generator,
		media:     media,
		guide:     d.Guide,
		readFile:  readFile,
		baseCtx:   context.Background(),
		now:       time.Now,
	}
}

// Connected reports whether the gateway session is up.
func (b *Bot) Connected() bool { return b.connected.Load() }

// Run opens the gateway, registers the commands and blocks until ctx ends.
func (b *Bot) Run(ctx context.Context) error {
	b.baseCtx = ctx

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.connected.Store(true)
		logx.Info("Bot", "client connected as %s", r.User.Username)
	})
	b.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Disconnect) {
		b.connected.Store(false)
		logx.Warn("Bot", "gateway disconnected")
	})
	b.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Resumed) {
		b.connected.Store(true)
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handle(s, i.Interaction)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("bot: open gateway: %w", err)
	}
	defer b.session.Close()

	cmds := commands(b.guide)
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, cmds); err != nil {
		return fmt.Errorf("bot: register commands: %w", err)
	}
	scope := "globally"
	if b.guildID != "" {
		scope = "in guild " + b.guildID
	}
	logx.Info("Bot", "registered %d commands %s", len(cmds), scope)

	<-ctx.Done()
	logx.Info("Bot", "closing gateway...")
	b.connected.Store(false)
	return nil
}

// invocation carries per-command context for logs and replies.
type invocation struct {
	id      string
	command string
	user    *discordgo.User
}

func (b *Bot) handle(r responder, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	inv := invocation{id: uuid.NewString(), command: data.Name, user: interactionUser(i)}
	var sub *discordgo.ApplicationCommandInteractionDataOption
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = data.Options[0]
		inv.command += " " + sub.Name
	}
	if inv.user != nil {
		logx.L(inv.id, "Bot", "/%s from %s", inv.command, inv.user.Username)
	}

	timer := logx.Start(inv.id, "Bot", inv.command)

	// ping answers inline, everything else may take long: defer first
	if data.Name == "ping" {
		b.finish(inv, timer, true, r.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: "Pong!"},
		}))
		return
	}

	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.finish(inv, timer, false, err)
		return
	}

	out, ok := b.dispatch(b.baseCtx, inv, sub)
	edit := &discordgo.WebhookEdit{Files: out.Files}
	if out.Content != "" {
		edit.Content = &out.Content
	}
	if len(out.Embeds) > 0 {
		edit.Embeds = &out.Embeds
	}
	_, err := r.InteractionResponseEdit(i, edit)
	b.finish(inv, timer, ok, err)
}

func (b *Bot) dispatch(ctx context.Context, inv invocation, sub *discordgo.ApplicationCommandInteractionDataOption) (reply, bool) {
	var opts optionMap
	if sub != nil {
		opts = toOptionMap(sub.Options)
	}
	switch inv.command {
	case "anime angry":
		return b.reaction(ctx, inv, "angry", b.reactions.Angry)
	case "anime baka":
		return b.reaction(ctx, inv, "baka", b.reactions.Baka)
	case "wfx dream":
		return b.dream(ctx, inv, dreamParams(opts))
	case "wfx guide":
		name, _ := opts.string("section")
		return b.guideSection(inv, name)
	default:
		logx.Warn("Bot", "unknown command %q", inv.command)
		return textReply("Unknown command"), false
	}
}

func (b *Bot) finish(inv invocation, timer *logx.Timer, ok bool, sendErr error) {
	elapsed := timer.End()
	outcome := "ok"
	if !ok || sendErr != nil {
		outcome = "failed"
	}
	if sendErr != nil {
		logx.LE(inv.id, "Bot", "sending response for /%s: %v", inv.command, sendErr)
	}
	lbls := map[string]string{"command": inv.command, "outcome": outcome}
	metrics.Commands.Inc(lbls)
	metrics.CommandDur.Observe(lbls, elapsed.Seconds())
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
