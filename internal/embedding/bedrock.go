package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/richardg91-bien/aprendiendo-ia-sub001/internal/config"
)

const (
	// DefaultBedrockModel is the Titan text embedding model.
	DefaultBedrockModel = "amazon.titan-embed-text-v2:0"

	// DefaultBedrockDimension is the default Titan v2 output dimension.
	DefaultBedrockDimension = 1024
)

// bedrockEncoder implements Encoder using AWS Bedrock Titan embeddings.
type bedrockEncoder struct {
	client    *bedrockruntime.Client
	model     string
	dimension int
}

var _ Encoder = (*bedrockEncoder)(nil)

func newBedrockEncoder(ctx context.Context, cfg config.Config) (*bedrockEncoder, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	model := cfg.EmbedModel
	if model == "" || model == "all-minilm:l6-v2" {
		model = DefaultBedrockModel
	}
	dimension := cfg.EmbedDimension
	if dimension == 0 {
		dimension = DefaultBedrockDimension
	}

	return &bedrockEncoder{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		model:     model,
		dimension: dimension,
	}, nil
}

// titanRequest is the Titan v2 embedding request body.
type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

// titanResponse is the Titan embedding response body.
type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Encode generates an embedding vector via Bedrock InvokeModel.
func (e *bedrockEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := validateInput(text); err != nil {
		return nil, err
	}

	body, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: e.dimension,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Embedding) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(resp.Embedding), e.dimension, e.model)
	}
	return resp.Embedding, nil
}

// EncodeBatch generates embeddings sequentially; Titan's InvokeModel API
// accepts one input per call.
func (e *bedrockEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		emb, err := e.Encode(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, emb)
	}
	return embeddings, nil
}

// Model returns the configured embedding model name.
func (e *bedrockEncoder) Model() string {
	return e.model
}

// Dimension returns the expected embedding dimension.
func (e *bedrockEncoder) Dimension() int {
	return e.dimension
}
