package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const (
	// defaultImageModelID is the Bedrock image model used when the caller does not pick one.
	defaultImageModelID = "amazon.titan-image-generator-v1"

	// Titan accepts a fixed set of resolutions; 1024x1024 is the documented default.
	defaultImageWidth  = 1024
	defaultImageHeight = 1024

	// Controls how closely generation follows the prompt. 8.0 is the service default.
	defaultImageCFGScale = 8.0
)

// ImageModelClient is the single Bedrock runtime operation image generation depends on.
type ImageModelClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type ImageOptions struct {
	ModelID  string
	Width    int
	Height   int
	CFGScale float64
}

type ImageGenerate struct {
	client ImageModelClient
	opts   ImageOptions
}

func NewImageGenerate(client ImageModelClient, opts ImageOptions) *ImageGenerate {
	if opts.ModelID == "" {
		opts.ModelID = defaultImageModelID
	}
	if opts.Width == 0 {
		opts.Width = defaultImageWidth
	}
	if opts.Height == 0 {
		opts.Height = defaultImageHeight
	}
	if opts.CFGScale == 0 {
		opts.CFGScale = defaultImageCFGScale
	}
	return &ImageGenerate{client: client, opts: opts}
}

func (t *ImageGenerate) Name() string  { return "image_generate" }
func (t *ImageGenerate) Title() string { return "Generate Image" }
func (t *ImageGenerate) Description() string {
	return "Generates an image from a text prompt and returns it base64-encoded along with its dimensions."
}

func (t *ImageGenerate) InputSchema() *jsonschema.Schema {
	minSeed := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"prompt": {
				Type:        "string",
				Description: "Description of the image to generate.",
			},
			"seed": {
				Type:        "integer",
				Minimum:     &minSeed,
				Description: "Optional seed for reproducible generation.",
			},
		},
		Required:             []string{"prompt"},
		AdditionalProperties: noExtraFields(),
	}
}

func (t *ImageGenerate) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"image": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"format": {Type: "string"},
					"base64": {Type: "string"},
					"width":  {Type: "integer"},
					"height": {Type: "integer"},
				},
				Required: []string{"format", "base64", "width", "height"},
			},
			"model": {Type: "string"},
		},
		Required: []string{"image", "model"},
	}
}

// titanImageRequest is the InvokeModel body for amazon.titan-image-generator models.
type titanImageRequest struct {
	TaskType              string              `json:"taskType"`
	TextToImageParams     titanTextToImage    `json:"textToImageParams"`
	ImageGenerationConfig titanImageGenConfig `json:"imageGenerationConfig"`
}

type titanTextToImage struct {
	Text string `json:"text"`
}

type titanImageGenConfig struct {
	NumberOfImages int     `json:"numberOfImages"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfgScale"`
	Seed           *int    `json:"seed,omitempty"`
}

type titanImageResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error,omitempty"`
}

func (t *ImageGenerate) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	prompt, ok := input["prompt"].(string)
	if !ok || strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt must be a non-empty string")
	}

	req := titanImageRequest{
		TaskType:          "TEXT_IMAGE",
		TextToImageParams: titanTextToImage{Text: prompt},
		ImageGenerationConfig: titanImageGenConfig{
			NumberOfImages: 1,
			Width:          t.opts.Width,
			Height:         t.opts.Height,
			CFGScale:       t.opts.CFGScale,
		},
	}
	if seed, ok := intArg(input, "seed"); ok {
		req.ImageGenerationConfig.Seed = &seed
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	resp, err := t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(t.opts.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke image model: %w", err)
	}

	var result titanImageResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("parse image model response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("image model: %s", result.Error)
	}
	if len(result.Images) == 0 {
		return nil, fmt.Errorf("image model returned no images")
	}

	out := struct {
		Image struct {
			Format string `json:"format"`
			Base64 string `json:"base64"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"image"`
		Model string `json:"model"`
	}{Model: t.opts.ModelID}
	out.Image.Format = "png"
	out.Image.Base64 = result.Images[0]
	out.Image.Width = t.opts.Width
	out.Image.Height = t.opts.Height

	// marshal -> map[string]any to keep outputs uniform
	b, _ := json.Marshal(out)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m, nil
}
