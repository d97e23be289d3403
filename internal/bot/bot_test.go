package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/httpx"
	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/metrics"
	"github.com/ccastromar/wfx-bot/internal/sd"
	"github.com/ccastromar/wfx-bot/internal/waifu"
)

type fakeReactions struct {
	url string
	err error
}

func (f *fakeReactions) Angry(ctx context.Context) (*waifu.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &waifu.Image{URL: f.url + "/angry.gif"}, nil
}

func (f *fakeReactions) Baka(ctx context.Context) (*waifu.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &waifu.Image{URL: f.url + "/baka.gif"}, nil
}

type fakeGenerator struct {
	got sd.GenerateParams
	res *sd.GenerateResult
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, p sd.GenerateParams) (*sd.GenerateResult, error) {
	f.got = p
	return f.res, f.err
}

type fakeMedia struct {
	fetched []string
	err     error
}

func (f *fakeMedia) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	f.fetched = append(f.fetched, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("GIF89a"), nil
}

type fakeResponder struct {
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	respondErr error
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return f.respondErr
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func testGuide() *config.Guide {
	return &config.Guide{Sections: map[string]config.GuideSection{
		"prompt": {Name: "prompt", Label: "Prompt Guide", Title: "Prompt Guide", Description: "read me", Image: "assets/prompt.png", Footer: "bye"},
	}}
}

func sampleResult() *sd.GenerateResult {
	return &sd.GenerateResult{
		Images: [][]byte{[]byte("png-1"), []byte("png-2")},
		Info: sd.Info{
			Prompt: "1girl", NegativePrompt: "lowres", Seed: 42, Width: 1024, Height: 1024,
			SamplerName: "Euler a", CFGScale: 7, Steps: 25, ModelName: "animagineXL40", ModelHash: "6327eca98b",
		},
	}
}

func newTestBot(r Reactions, g Generator, m MediaFetcher) *Bot {
	b := newBot(Deps{
		Reactions: r,
		Generator: g,
		Guide:     testGuide(),
		Media:     m,
		ReadFile:  func(string) ([]byte, error) { return []byte("png"), nil },
	})
	b.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return b
}

func command(name string, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	data := discordgo.ApplicationCommandInteractionData{Name: name}
	if sub != "" {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{{
			Name:    sub,
			Type:    discordgo.ApplicationCommandOptionSubCommand,
			Options: opts,
		}}
	}
	return &discordgo.Interaction{
		Type:   discordgo.InteractionApplicationCommand,
		Data:   data,
		Member: &discordgo.Member{User: &discordgo.User{ID: "1", Username: "kiri"}},
	}
}

func strOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func intOpt(name string, v int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v)}
}

func numOpt(name string, v float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionNumber, Value: v}
}

func TestHandle_Ping(t *testing.T) {
	b := newTestBot(&fakeReactions{}, &fakeGenerator{}, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("ping", ""))

	require.Len(t, r.responses, 1)
	require.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, r.responses[0].Type)
	require.Equal(t, "Pong!", r.responses[0].Data.Content)
	require.Empty(t, r.edits)
}

func TestHandle_IgnoresNonCommands(t *testing.T) {
	b := newTestBot(&fakeReactions{}, &fakeGenerator{}, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, &discordgo.Interaction{Type: discordgo.InteractionPing})
	require.Empty(t, r.responses)
}

func TestHandle_AngryAttachesGIF(t *testing.T) {
	media := &fakeMedia{}
	b := newTestBot(&fakeReactions{url: "https://cdn.test"}, &fakeGenerator{}, media)
	r := &fakeResponder{}

	b.handle(r, command("anime", "angry"))

	require.Len(t, r.responses, 1)
	require.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, r.responses[0].Type)
	require.Equal(t, []string{"https://cdn.test/angry.gif"}, media.fetched)
	require.Len(t, r.edits, 1)
	require.Len(t, r.edits[0].Files, 1)
	require.Equal(t, "angry.gif", r.edits[0].Files[0].Name)
	data, _ := io.ReadAll(r.edits[0].Files[0].Reader)
	require.Equal(t, "GIF89a", string(data))
}

func TestHandle_BakaFailureMessage(t *testing.T) {
	b := newTestBot(&fakeReactions{err: &httpx.HTTPStatusError{StatusCode: 401}}, &fakeGenerator{}, &fakeMedia{})
	r := &fakeResponder{}

	before := metrics.Commands.Value(map[string]string{"command": "anime baka", "outcome": "failed"})
	b.handle(r, command("anime", "baka"))

	require.Len(t, r.edits, 1)
	require.Equal(t, "Failed to get baka GIF", *r.edits[0].Content)
	require.Equal(t, before+1, metrics.Commands.Value(map[string]string{"command": "anime baka", "outcome": "failed"}))
}

func TestHandle_AngryDownloadFailure(t *testing.T) {
	b := newTestBot(&fakeReactions{url: "https://cdn.test"}, &fakeGenerator{}, &fakeMedia{err: errors.New("404")})
	r := &fakeResponder{}

	b.handle(r, command("anime", "angry"))
	require.Equal(t, "Failed to get angry GIF", *r.edits[0].Content)
}

func TestHandle_DreamRendersEmbed(t *testing.T) {
	gen := &fakeGenerator{res: sampleResult()}
	b := newTestBot(&fakeReactions{}, gen, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("wfx", "dream",
		strOpt("prompt", "1girl"),
		intOpt("width", 832),
		intOpt("seed", 42),
		numOpt("cfg_scale", 5.5),
	))

	require.Equal(t, "1girl", gen.got.Prompt)
	require.Nil(t, gen.got.NegativePrompt)
	require.Nil(t, gen.got.Height)
	require.Nil(t, gen.got.Steps)
	require.Equal(t, 832, *gen.got.Width)
	require.Equal(t, int64(42), *gen.got.Seed)
	require.Equal(t, 5.5, *gen.got.CFGScale)

	require.Len(t, r.edits, 1)
	edit := r.edits[0]
	require.Nil(t, edit.Content)
	require.Len(t, *edit.Embeds, 1)
	embed := (*edit.Embeds)[0]
	require.Equal(t, "attachment://image.png", embed.Image.URL)
	require.Contains(t, embed.Author.Name, "kiri")
	require.Len(t, edit.Files, 1)
	require.Equal(t, "image.png", edit.Files[0].Name)
	data, _ := io.ReadAll(edit.Files[0].Reader)
	require.Equal(t, "png-1", string(data))
}

func TestHandle_DreamFailureIsGeneric(t *testing.T) {
	for _, err := range []error{
		&httpx.TransportError{Method: "POST", URL: "x", Err: context.DeadlineExceeded},
		&httpx.HTTPStatusError{StatusCode: 503},
		&httpx.DecodeError{What: "image 0", Err: errors.New("illegal base64")},
	} {
		b := newTestBot(&fakeReactions{}, &fakeGenerator{err: err}, &fakeMedia{})
		r := &fakeResponder{}

		b.handle(r, command("wfx", "dream", strOpt("prompt", "x")))
		require.Equal(t, msgDreamFailed, *r.edits[0].Content, "error %v", err)
	}
}

func TestHandle_DreamNoImages(t *testing.T) {
	res := sampleResult()
	res.Images = nil
	b := newTestBot(&fakeReactions{}, &fakeGenerator{res: res}, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("wfx", "dream", strOpt("prompt", "x")))
	require.Equal(t, msgDreamEmpty, *r.edits[0].Content)
	require.Empty(t, r.edits[0].Files)
}

func TestHandle_DreamLogsSettingsFromBackend(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logx.SetLogger(zap.New(core))
	t.Cleanup(func() { logx.SetLogger(zap.NewNop()) })

	b := newTestBot(&fakeReactions{}, &fakeGenerator{res: sampleResult()}, &fakeMedia{})
	b.handle(&fakeResponder{}, command("wfx", "dream", strOpt("prompt", "1girl")))

	require.Equal(t, 1, logs.FilterMessageSnippet("generated 2 image(s) 1024x1024 steps=25 cfg=7 seed=42").Len())
	require.Zero(t, logs.FilterMessageSnippet("generating").Len())
}

func TestHandle_DreamForwardsOddSizes(t *testing.T) {
	gen := &fakeGenerator{err: &httpx.HTTPStatusError{Method: "POST", URL: "x", StatusCode: 422, Body: "width must be a multiple of 8"}}
	b := newTestBot(&fakeReactions{}, gen, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("wfx", "dream", strOpt("prompt", "1girl"), intOpt("width", 1001), intOpt("steps", 0)))

	require.Equal(t, "1girl", gen.got.Prompt)
	require.Equal(t, 1001, *gen.got.Width)
	require.Equal(t, 0, *gen.got.Steps)
	require.Equal(t, msgDreamFailed, *r.edits[0].Content)
}

func TestHandle_DreamBlankPrompt(t *testing.T) {
	gen := &fakeGenerator{res: sampleResult()}
	b := newTestBot(&fakeReactions{}, gen, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("wfx", "dream", strOpt("prompt", "   ")))

	require.Empty(t, gen.got.Prompt, "generator must not be called")
	require.Equal(t, msgDreamFailed, *r.edits[0].Content)
}

func TestHandle_Guide(t *testing.T) {
	b := newTestBot(&fakeReactions{}, &fakeGenerator{}, &fakeMedia{})
	r := &fakeResponder{}

	b.handle(r, command("wfx", "guide", strOpt("section", "prompt")))

	edit := r.edits[0]
	require.Len(t, *edit.Embeds, 1)
	embed := (*edit.Embeds)[0]
	require.Equal(t, "Prompt Guide", embed.Title)
	require.Equal(t, "bye", embed.Footer.Text)
	require.Equal(t, "attachment://guide_prompt.png", embed.Image.URL)
	require.Len(t, edit.Files, 1)
}

func TestHandle_GuideMissingImage(t *testing.T) {
	b := newTestBot(&fakeReactions{}, &fakeGenerator{}, &fakeMedia{})
	b.readFile = func(string) ([]byte, error) { return nil, errors.New("no such file") }
	r := &fakeResponder{}

	b.handle(r, command("wfx", "guide", strOpt("section", "prompt")))

	edit := r.edits[0]
	require.Len(t, *edit.Embeds, 1)
	require.Nil(t, (*edit.Embeds)[0].Image)
	require.Empty(t, edit.Files)
}

func TestHandle_DeferFailureSkipsWork(t *testing.T) {
	gen := &fakeGenerator{res: sampleResult()}
	b := newTestBot(&fakeReactions{}, gen, &fakeMedia{})
	r := &fakeResponder{respondErr: errors.New("unknown interaction")}

	b.handle(r, command("wfx", "dream", strOpt("prompt", "x")))
	require.Empty(t, gen.got.Prompt)
	require.Empty(t, r.edits)
}

func TestCommands_Tree(t *testing.T) {
	cmds := commands(testGuide())
	require.Len(t, cmds, 3)

	names := map[string]*discordgo.ApplicationCommand{}
	for _, c := range cmds {
		names[c.Name] = c
	}
	require.Contains(t, names, "ping")
	require.Len(t, names["anime"].Options, 2)

	wfx := names["wfx"]
	require.Equal(t, "dream", wfx.Options[0].Name)
	require.True(t, wfx.Options[0].Options[0].Required)
	guide := wfx.Options[1].Options[0]
	require.Len(t, guide.Choices, 1)
	require.Equal(t, "prompt", guide.Choices[0].Value)
}

func TestDreamParams_EmptyMapLeavesDefaults(t *testing.T) {
	p := dreamParams(toOptionMap(nil))
	require.Equal(t, sd.GenerateParams{}, p)
	require.Equal(t, sd.DefaultNegativePrompt, p.Body().NegativePrompt)
}

func TestFieldValue(t *testing.T) {
	require.Equal(t, "-", fieldValue(""))
	long := make([]rune, 2000)
	for i := range long {
		long[i] = 'あ'
	}
	out := []rune(fieldValue(string(long)))
	require.Len(t, out, maxFieldValue)
	require.Equal(t, '…', out[len(out)-1])
}

func TestMediaFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.gif":
			_, _ = w.Write([]byte("GIF89a-data"))
		case "/big.gif":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	m := newMediaFetcher(time.Second)
	data, err := m.Fetch(context.Background(), ts.URL+"/ok.gif")
	require.NoError(t, err)
	require.Equal(t, "GIF89a-data", string(data))

	_, err = m.Fetch(context.Background(), ts.URL+"/missing.gif")
	require.ErrorContains(t, err, "status 404")

	_, err = m.Fetch(context.Background(), "file:///etc/passwd")
	require.ErrorContains(t, err, "unsupported scheme")

	m.maxBytes = 16
	_, err = m.Fetch(context.Background(), ts.URL+"/big.gif")
	require.ErrorContains(t, err, "too large")
}
