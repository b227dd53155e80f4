package chat

import (
	"context"
	"fmt"

	"github.com/Taichi-iskw/voice-support/internal/config"
	"github.com/Taichi-iskw/voice-support/internal/errors"
	"github.com/Taichi-iskw/voice-support/internal/pipeline"
	chatrepo "github.com/Taichi-iskw/voice-support/internal/repository/chat"
	"github.com/Taichi-iskw/voice-support/internal/service/chat"
	"github.com/Taichi-iskw/voice-support/internal/service/common"
	"github.com/Taichi-iskw/voice-support/internal/service/language"
	"github.com/Taichi-iskw/voice-support/internal/service/sentiment"
	"github.com/Taichi-iskw/voice-support/internal/service/speech"
	"github.com/Taichi-iskw/voice-support/internal/storage"
)

// ServiceFactory builds the recognize stack from configuration
type ServiceFactory struct {
	cfg       *config.Config
	cmdRunner common.CmdRunner
}

// NewServiceFactory loads configuration and creates a new service factory
func NewServiceFactory() (*ServiceFactory, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewServiceFactoryWithConfig(cfg, common.NewCmdRunner()), nil
}

// NewServiceFactoryWithConfig creates a factory for an already loaded configuration
func NewServiceFactoryWithConfig(cfg *config.Config, cmdRunner common.CmdRunner) *ServiceFactory {
	return &ServiceFactory{cfg: cfg, cmdRunner: cmdRunner}
}

// Config returns the configuration the factory builds from
func (f *ServiceFactory) Config() *config.Config {
	return f.cfg
}

// CreateStore returns the object store clips are uploaded to, with retries
func (f *ServiceFactory) CreateStore() (storage.ObjectStore, error) {
	var store storage.ObjectStore
	if f.cfg.Storage.Endpoint != "" {
		store = storage.NewHTTPStore(f.cfg.Storage.Endpoint, f.cfg.Storage.Token)
	} else {
		fs, err := storage.NewFileStore(f.cfg.Storage.Root)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	if f.cfg.Storage.Retries <= 0 {
		return store, nil
	}
	opts := storage.DefaultRetryOptions()
	opts.MaxRetries = uint64(f.cfg.Storage.Retries)
	return storage.NewRetryingStore(store, opts), nil
}

// CreateSpeech returns the transcription engine. The cleanup func stops
// any jobs a local engine still runs.
func (f *ServiceFactory) CreateSpeech(store storage.ObjectStore) (speech.Service, func(), error) {
	switch f.cfg.Speech.Engine {
	case "whisper":
		if err := common.LookPath("whisper"); err != nil {
			return nil, nil, err
		}
		engine := speech.NewWhisperEngineWithCmdRunner(store, f.cmdRunner, f.cfg.Speech.WhisperModel)
		return engine, engine.Close, nil
	default:
		if f.cfg.Speech.Endpoint == "" {
			return nil, nil, fmt.Errorf("speech.endpoint is required for the remote engine")
		}
		return speech.NewRemoteService(f.cfg.Speech.Endpoint, f.cfg.Speech.Token), func() {}, nil
	}
}

// CreateTranslator returns the configured translation backend
func (f *ServiceFactory) CreateTranslator() (language.Translator, error) {
	lc := f.cfg.Language
	switch lc.Engine {
	case "deepl":
		if lc.DeepLAPIKey == "" {
			return nil, fmt.Errorf("language.deepl_api_key (or DEEPL_API_KEY) is required for the deepl engine")
		}
		return language.NewDeepLTranslator(lc.DeepLAPIKey), nil
	case "plamo":
		if err := common.LookPath("plamo-translate"); err != nil {
			return nil, err
		}
		return language.NewPlamoTranslator(f.cmdRunner), nil
	default:
		if lc.Endpoint == "" {
			return nil, fmt.Errorf("language.endpoint is required for the remote engine")
		}
		return f.languageClient(), nil
	}
}

// CreateAnalyzer returns the sentiment analyzer. Without a language endpoint
// every call fails with SENTIMENT_ERROR.
func (f *ServiceFactory) CreateAnalyzer() sentiment.Analyzer {
	var detector language.SentimentDetector = unconfiguredDetector{}
	if f.cfg.Language.Endpoint != "" {
		detector = f.languageClient()
	}
	return sentiment.NewAnalyzer(detector, f.cfg.Language.SentimentLang)
}

// CreatePipeline wires store, speech and translator into a Pipeline
func (f *ServiceFactory) CreatePipeline(store storage.ObjectStore, speechSvc speech.Service, translator language.Translator) *pipeline.Pipeline {
	sc := f.cfg.Storage

	keys := pipeline.UniqueKeys(sc.KeyPrefix)
	if sc.FixedKey != "" {
		keys = pipeline.FixedKey(sc.FixedKey)
	}

	return pipeline.New(store, speechSvc, translator, pipeline.Options{
		CompartmentID: f.cfg.CompartmentID,
		DisplayName:   "voice-support",
		Namespace:     sc.Namespace,
		Bucket:        sc.Bucket,
		OutputPrefix:  f.cfg.Speech.OutputPrefix,
		Params:        f.cfg.Speech.Model,
		PollInterval:  f.cfg.Speech.PollInterval,
		PollTimeout:   f.cfg.Speech.PollTimeout,
		SourceLang:    f.cfg.Language.SourceLang,
		TargetLang:    f.cfg.Language.TargetLang,
		Keys:          keys,
	})
}

// CreateRecognizer builds the pipeline and the analyzer without a database
func (f *ServiceFactory) CreateRecognizer() (*pipeline.Pipeline, sentiment.Analyzer, func(), error) {
	store, err := f.CreateStore()
	if err != nil {
		return nil, nil, nil, err
	}
	speechSvc, stopSpeech, err := f.CreateSpeech(store)
	if err != nil {
		return nil, nil, nil, err
	}
	translator, err := f.CreateTranslator()
	if err != nil {
		stopSpeech()
		return nil, nil, nil, err
	}
	return f.CreatePipeline(store, speechSvc, translator), f.CreateAnalyzer(), stopSpeech, nil
}

// CreateService creates the chat service with all dependencies
func (f *ServiceFactory) CreateService(ctx context.Context) (chat.ChatService, func(), error) {
	p, analyzer, stopSpeech, err := f.CreateRecognizer()
	if err != nil {
		return nil, nil, err
	}

	dbPool, err := config.NewDatabasePool(ctx, f.cfg)
	if err != nil {
		stopSpeech()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc := chat.NewChatService(p, chatrepo.NewChatRepository(dbPool), analyzer)

	cleanup := func() {
		stopSpeech()
		dbPool.Close()
	}
	return svc, cleanup, nil
}

func (f *ServiceFactory) languageClient() *language.RemoteClient {
	lc := f.cfg.Language
	return language.NewRemoteClient(lc.Endpoint, lc.APIKey, f.cfg.CompartmentID, lc.RateLimitPerMin)
}

type unconfiguredDetector struct{}

func (unconfiguredDetector) DetectSentiments(ctx context.Context, docs []language.TextDocument) ([]language.DocumentSentiment, error) {
	return nil, errors.New(errors.CodeInvalidArg, "sentiment analysis needs language.endpoint")
}
