package sd

// DefaultNegativePrompt lists the tags AnimagineXL users almost always want
// to keep out of a picture.
const DefaultNegativePrompt = "lowres, bad anatomy, bad hands, text, error, missing finger, extra digits, fewer digits, cropped, worst quality, low quality, low score, bad score, average score, signature, watermark, username, blurry"

const (
	DefaultWidth    = 1024
	DefaultHeight   = 1024
	DefaultSeed     = int64(-1) // the server picks a random seed
	DefaultSteps    = 25
	DefaultCFGScale = 7.0
)

// GenerateParams is what a caller collected. Nil fields fall back to the
// defaults when Body is called. Width and height should be multiples of 8,
// the server is the one enforcing it.
type GenerateParams struct {
	Prompt         string
	NegativePrompt *string
	Width          *int
	Height         *int
	Seed           *int64
	Steps          *int
	CFGScale       *float64
}

// GenerateBody is the JSON accepted by /sdapi/v1/txt2img.
type GenerateBody struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	Steps          int     `json:"steps"`
}

// Body fills the defaults in and returns the wire payload.
func (p GenerateParams) Body() GenerateBody {
	return GenerateBody{
		Prompt:         p.Prompt,
		NegativePrompt: orDefault(p.NegativePrompt, DefaultNegativePrompt),
		Width:          orDefault(p.Width, DefaultWidth),
		Height:         orDefault(p.Height, DefaultHeight),
		CFGScale:       orDefault(p.CFGScale, DefaultCFGScale),
		Seed:           orDefault(p.Seed, DefaultSeed),
		Steps:          orDefault(p.Steps, DefaultSteps),
	}
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// txt2imgResponse is the raw envelope. Info is itself a JSON document
// encoded as a string.
type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// Info describes the first image of a generation.
type Info struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Seed           int64   `json:"seed"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	SamplerName    string  `json:"sampler_name"`
	CFGScale       float64 `json:"cfg_scale"`
	Steps          int     `json:"steps"`
	ModelName      string  `json:"sd_model_name"`
	ModelHash      string  `json:"sd_model_hash"`
	Version        string  `json:"version"`
}

// GenerateResult holds the decoded images, in server order. Images may be
// empty; callers decide what that means for them.
type GenerateResult struct {
	Images [][]byte
	Info   Info
}

// Model is one checkpoint known to the WebUI.
type Model struct {
	Title     string `json:"title"`
	ModelName string `json:"model_name"`
	Hash      string `json:"hash"`
	Filename  string `json:"filename"`
}
