package handlers

import (
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"videothingy/course-engine/internal/timing"
	"videothingy/course-engine/internal/ttsclient"
	"videothingy/course-engine/internal/worker"
)

// ApplicationHandler holds shared dependencies for handlers that need more
// than the global Supabase client: the timing resolver (with its injected
// text-generation client), the TTS synthesizer, and the background worker
// pool.
type ApplicationHandler struct {
	Resolver   *timing.Resolver
	TTS        ttsclient.Synthesizer
	Dispatcher *worker.Dispatcher
	Logger     *logrus.Logger
	DB         *supa.Client
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(resolver *timing.Resolver, tts ttsclient.Synthesizer, dispatcher *worker.Dispatcher, logger *logrus.Logger, dbClient *supa.Client) *ApplicationHandler {
	return &ApplicationHandler{
		Resolver:   resolver,
		TTS:        tts,
		Dispatcher: dispatcher,
		Logger:     logger,
		DB:         dbClient,
	}
}
