package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/sd"
)

func ptr[T any](v T) *T { return &v }

// commands returns the slash command tree registered on startup.
func commands(guide *config.Guide) []*discordgo.ApplicationCommand {
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, s := range guide.Ordered() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: s.Label, Value: s.Name})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Reply pong",
		},
		{
			Name:        "anime",
			Description: "Anime reaction GIFs",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "angry", Description: "Random angry GIF"},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "baka", Description: "Random baka GIF"},
			},
		},
		{
			Name:        "wfx",
			Description: "Image generation",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "dream",
					Description: "Generate images using AnimagineXL 4",
					Options:     dreamOptions(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guide",
					Description: "Usage guidelines",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "section",
							Description: "Section",
							Required:    true,
							Choices:     choices,
						},
					},
				},
			},
		},
	}
}

func dreamOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "prompt",
			Description: "Describe the image to be generated in danbooru tags (see /wfx guide)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "negative_prompt",
			Description: "List of unwanted features tags",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "width",
			Description: "Output width (pixels). Must be a multiple of 8. (default: 1024)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "height",
			Description: "Output height (pixels). Must be a multiple of 8. (default: 1024)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "seed",
			Description: "RNG seed. Use -1 for a random seed chosen by the server. (default: -1)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "steps",
			Description: "Number of denoising steps. (default: 25)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionNumber,
			Name:        "cfg_scale",
			Description: "Higher values follow the prompt more strictly but may reduce diversity. (default: 7.0)",
		},
	}
}

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func toOptionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (m optionMap) string(name string) (string, bool) {
	o, ok := m[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return o.StringValue(), true
}

func (m optionMap) int(name string) (int64, bool) {
	o, ok := m[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return o.IntValue(), true
}

func (m optionMap) float(name string) (float64, bool) {
	o, ok := m[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionNumber {
		return 0, false
	}
	return o.FloatValue(), true
}

// dreamParams maps the options the user actually set; anything absent stays
// nil so the sd package applies its defaults.
func dreamParams(m optionMap) sd.GenerateParams {
	p := sd.GenerateParams{}
	p.Prompt, _ = m.string("prompt")
	if v, ok := m.string("negative_prompt"); ok {
		p.NegativePrompt = &v
	}
	if v, ok := m.int("width"); ok {
		p.Width = ptr(int(v))
	}
	if v, ok := m.int("height"); ok {
		p.Height = ptr(int(v))
	}
	if v, ok := m.int("seed"); ok {
		p.Seed = &v
	}
	if v, ok := m.int("steps"); ok {
		p.Steps = ptr(int(v))
	}
	if v, ok := m.float("cfg_scale"); ok {
		p.CFGScale = &v
	}
	return p
}
