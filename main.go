package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"videothingy/course-engine/config"
	"videothingy/course-engine/handlers"
	"videothingy/course-engine/internal/db"
	"videothingy/course-engine/internal/llmclient"
	"videothingy/course-engine/internal/timing"
	"videothingy/course-engine/internal/ttsclient"
	"videothingy/course-engine/internal/worker"
	"videothingy/course-engine/middleware"
)

func main() {
	config.InitLogger()

	// Initialize Supabase clients (REST for handlers, PostgREST for job records)
	if err := config.InitSupabase(); err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}
	if err := db.InitSupabaseClient(); err != nil {
		log.Fatalf("Failed to initialize job database client: %v", err)
	}

	// Shared provider clients: constructed once per process, injected into
	// the components that use them.
	var textGen timing.TextGenerator
	llm, err := llmclient.NewClient(os.Getenv("GEMINI_API_KEY"), os.Getenv("LLM_MODEL"))
	if err != nil {
		log.Printf("Warning: text-generation client unavailable (%v); timing links will use the heuristic fallback", err)
	} else {
		textGen = llm
	}

	var tts ttsclient.Synthesizer
	ttsClient, err := ttsclient.NewClient(os.Getenv("ELEVENLABS_API_KEY"), os.Getenv("TTS_VOICE_ID"))
	if err != nil {
		log.Printf("Warning: TTS client unavailable (%v); narration synthesis endpoints will be disabled", err)
	} else {
		tts = ttsClient
	}

	resolver := timing.NewResolver(textGen, config.Log)

	// Background worker pool: 5 workers, queue size 100
	dispatcher := worker.NewDispatcher(5, 100, db.JobRecorder{})
	dispatcher.Run()

	appHandler := handlers.NewApplicationHandler(resolver, tts, dispatcher, config.Log, config.SupabaseClient)

	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // Allow all origins for development
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Course Engine is healthy",
		})
	})

	// API v1 routes
	apiV1 := app.Group("/api/v1")

	// Course routes
	apiV1.Post("/courses", handlers.CreateCourse)
	apiV1.Get("/courses", handlers.GetCourses)
	apiV1.Get("/courses/:id", handlers.GetCourse)
	apiV1.Patch("/courses/:id", handlers.UpdateCourse)
	apiV1.Delete("/courses/:id", handlers.DeleteCourse)

	// Slide routes within a course
	courseSlides := apiV1.Group("/courses/:courseId/slides")
	courseSlides.Get("", handlers.ListSlides)
	courseSlides.Post("", handlers.CreateSlide)
	courseSlides.Get("/:slideId", handlers.GetSlide)
	courseSlides.Patch("/:slideId", handlers.UpdateSlide) // Also persists timing_links_manual
	courseSlides.Delete("/:slideId", handlers.DeleteSlide)

	// Timing and narration routes
	apiV1.Post("/courses/:courseId/timing", appHandler.RecomputeCourseTiming)
	courseSlides.Post("/:slideId/timing", appHandler.ComputeSlideTiming)
	courseSlides.Post("/:slideId/narration", appHandler.SynthesizeSlideNarration)
	courseSlides.Post("/:slideId/finalize", appHandler.FinalizeSlideForRender)

	// Job status route
	apiV1.Get("/jobs/:jobId", handlers.GetJobStatus)

	// Graceful shutdown: stop the worker pool before exiting
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down Course Engine...")
		dispatcher.Stop()
		_ = app.Shutdown()
	}()

	log.Println("Starting Course Engine on port 8080...")
	log.Fatal(app.Listen(":8080"))
}
