package agenttools

type IndexConfig struct {
	VectorIndexPath string `env:"VECTOR_INDEX_PATH,default=artifacts/corpus.db"`
	CorpusPath      string `env:"ARTIFACTS_CORPUS_PATH,default=artifacts/corpus.json"`
	RetrievalTopK   int    `env:"RETRIEVAL_TOP_K,default=3"`
}

type EmbedderConfig struct {
	Provider       string `env:"EMBEDDER_PROVIDER,default=openai"`
	BaseURL        string `env:"EMBEDDER_BASE_URL,default=https://api.openai.com/v1"`
	APIKey         string `env:"EMBEDDER_API_KEY"`
	Model          string `env:"EMBEDDER_MODEL,default=text-embedding-3-small"`
	Dimensions     int    `env:"EMBEDDER_DIMENSIONS,default=1536"`
	OllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
}

type ImageModelConfig struct {
	ModelID  string  `env:"IMAGE_MODEL_ID,default=amazon.titan-image-generator-v1"`
	Width    int     `env:"IMAGE_WIDTH,default=1024"`
	Height   int     `env:"IMAGE_HEIGHT,default=1024"`
	CFGScale float64 `env:"IMAGE_CFG_SCALE,default=8.0"`
}

type SQLConfig struct {
	DatabasePath string `env:"SQL_DATABASE_PATH,default=artifacts/data.db"`
}

type AnnotationConfig struct {
	Endpoint string `env:"ANNOTATION_ENDPOINT"`
	APIKey   string `env:"ANNOTATION_API_KEY"`
	Dataset  string `env:"ANNOTATION_DATASET,default=tool-feedback"`
}

type RunnerConfig struct {
	MaxToolCalls int `env:"MAX_TOOL_CALLS,default=16"`
}
