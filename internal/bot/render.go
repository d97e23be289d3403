package bot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/sd"
)

const (
	embedColor    = 0xFFD6A5
	maxFieldValue = 1024 // Discord limit per embed field
	imageFilename = "image.png"
)

// reply is what a handler wants sent back; the dispatcher turns it into a
// Discord response.
type reply struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
	Files   []*discordgo.File
}

func textReply(s string) reply { return reply{Content: s} }

func fileFrom(name, contentType string, data []byte) *discordgo.File {
	return &discordgo.File{Name: name, ContentType: contentType, Reader: bytes.NewReader(data)}
}

func dreamReply(res *sd.GenerateResult, author *discordgo.User, now time.Time) reply {
	info := res.Info
	embed := &discordgo.MessageEmbed{
		Title:       "🌟✨ Image Created! ✨🌟",
		Description: "*:･ﾟ✧ Your magical creation has come to life! ✧ﾟ･:*",
		Color:       embedColor,
		Timestamp:   now.Format(time.RFC3339),
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://" + imageFilename},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎨 Image Prompt ୨୧", Value: fieldValue(info.Prompt)},
			{Name: "🌙 Negative Enchantments ❀", Value: fieldValue(info.NegativePrompt)},
			{Name: "🎐 Settings ⋆｡˚", Value: fmt.Sprintf(
				"✧ Steps: %d\n🌈 CFG Scale: %g\n🎲 Seed: %d\n📐 Canvas: %dx%d",
				info.Steps, info.CFGScale, info.Seed, info.Width, info.Height,
			)},
			{Name: "⭐ Model ੭", Value: fieldValue(fmt.Sprintf("%s (%s)", info.ModelName, info.ModelHash))},
		},
	}
	if author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    fmt.Sprintf("⋆｡˚ Requested by %s ⋆｡˚", author.Username),
			IconURL: author.AvatarURL(""),
		}
	}

	return reply{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  []*discordgo.File{fileFrom(imageFilename, "image/png", res.Images[0])},
	}
}

// guideReply renders a section; image may be nil when the asset is missing.
func guideReply(s config.GuideSection, image []byte, now time.Time) reply {
	color := s.Color
	if color == 0 {
		color = embedColor
	}
	embed := &discordgo.MessageEmbed{
		Title:       s.Title,
		Description: s.Description,
		Color:       color,
		Timestamp:   now.Format(time.RFC3339),
	}
	if s.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: s.Footer}
	}

	r := reply{Embeds: []*discordgo.MessageEmbed{embed}}
	if image != nil {
		name := "guide_" + s.Name + ".png"
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + name}
		r.Files = []*discordgo.File{fileFrom(name, "image/png", image)}
	}
	return r
}

func fieldValue(s string) string {
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) <= maxFieldValue {
		return s
	}
	return string(r[:maxFieldValue-1]) + "…"
}
